package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	ChatWelcomeMessage = "Hello! I'm Talkzilla 🦖, here to roar with fun conversations! How can I assist you today?"

	// Leading context message built from the uploaded document
	DocumentContextPrefix = "Here's the content of the uploaded file:\n\n"

	MissingAPIKeyMessage   = "Please enter your Gemini API key in the sidebar."
	ExchangeFailedPrefix   = "Something went wrong: "
	DocumentFailedPrefix   = "Error processing file: "
	DefaultLLMBaseURL      = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultTokenizerScheme = "cl100k_base"
)

const (
	ModelGemini20Flash = "gemini-2.0-flash"
	ModelGemini15Pro   = "gemini-1.5-pro"
	ModelGemini15Flash = "gemini-1.5-flash"

	DefaultModel = ModelGemini20Flash
)

// SupportedModels is the fixed list offered by the model selector, in display order.
var SupportedModels = []string{
	ModelGemini20Flash,
	ModelGemini15Pro,
	ModelGemini15Flash,
}

func IsSupportedModel(model string) bool {
	for _, m := range SupportedModels {
		if m == model {
			return true
		}
	}
	return false
}

const (
	MimeTypeText = "text/plain"
	MimeTypePDF  = "application/pdf"
	MimeTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)
