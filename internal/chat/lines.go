package chat

// Screensaver lines rotated while the node is idle.
var screensaverLines = []string{
	"Awaiting inspiration...",
	"Dreaming of algorithms...",
	"What's your favorite byte?",
	"Processing thoughts...",
	"The universe is vast. So are my possibilities.",
	"Ready for the next byte of wisdom.",
}

// Fallback subjects used when the model cannot be asked for one in time.
var defaultSubjects = []string{
	"the ethics of AI",
	"the future of quantum computing",
	"the nature of consciousness",
	"the most interesting unsolved mystery in science",
	"the role of art in an AI-driven world",
	"the perfect pizza topping",
}

const subjectPrompt = "Generate a unique and interesting topic for two AIs to discuss. " +
	"Answer with the topic only, short and to the point."

const fallbackSubject = "general conversation"
