package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultCalendarDays = 60

type entryRequestPayload struct {
	HTML  string `json:"html"`
	Photo string `json:"photo"`
}

func (h *httpHandler) handleListEntries(c *gin.Context) {
	entries, err := h.store.Entries()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *httpHandler) handleLoadEntry(c *gin.Context) {
	state, err := h.journal.LoadEntry(c.Param("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *httpHandler) handleSaveEntry(c *gin.Context) {
	var request entryRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	entry, err := h.journal.SaveEntry(c.Param("date"), request.HTML, request.Photo)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *httpHandler) handleDeleteEntry(c *gin.Context) {
	if err := h.journal.DeleteEntry(c.Param("date")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleGetDraft(c *gin.Context) {
	draft, ok, err := h.journal.Draft(c.Param("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft_not_found"})
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *httpHandler) handleSaveDraft(c *gin.Context) {
	var request entryRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := h.journal.Autosave(c.Param("date"), request.HTML, request.Photo); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleDiscardDraft(c *gin.Context) {
	if err := h.journal.DiscardDraft(c.Param("date")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleJournalStats(c *gin.Context) {
	stats, err := h.journal.Stats()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *httpHandler) handleHistory(c *gin.Context) {
	history, err := h.journal.History(c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *httpHandler) handlePrompt(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prompt": h.journal.RandomPrompt()})
}

func (h *httpHandler) handleCalendar(c *gin.Context) {
	days := defaultCalendarDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_days"})
			return
		}
		days = parsed
	}
	cells, err := h.journal.CalendarDays(days)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cells)
}
