package journal

// defaultPrompts is the writing-prompt rotation shown above the editor.
var defaultPrompts = []string{
	"What made you smile today?",
	"Describe a challenge you faced and how you handled it.",
	"What are you grateful for right now?",
	"If today was a movie, what genre would it be and why?",
	"What's one thing you learned about yourself today?",
	"Write about a conversation that stuck with you.",
	"What would you tell your younger self about today?",
	"Describe your perfect day. How close was today to that?",
	"What's something you're looking forward to?",
	"If you could relive one moment from today, which would it be?",
	"What emotions did you experience today and why?",
	"Write a letter to your future self about today.",
	"What would you change about today if you could?",
	"Describe the most interesting thing you saw or heard today.",
	"What's one small victory you had today?",
	"How did you take care of yourself today?",
	"What's on your mind right now?",
	"Describe your day using only five words, then explain.",
	"What did you create, make, or accomplish today?",
	"Who made a difference in your day and how?",
	"What's something you want to remember about this moment in your life?",
	"If today had a soundtrack, what would be playing?",
	"What's a problem you're working through right now?",
	"Describe a moment of peace you experienced today.",
	"What would you like tomorrow to bring?",
}
