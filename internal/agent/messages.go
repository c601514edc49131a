package agent

// Fixed user-facing strings. The bot speaks as a cat; terminal states posted
// to Slack keep that voice.
const (
	loadingText    = ":loading:"
	noContextText  = "仲間はずれですにゃ?それとも反応不要ですかにゃ?めんご。"
	emptyText      = "OpenAIからの返答が空ですにゃ。調子が悪い可能性がありますにゃ。めんご。"
	usageLimitText = "OpenAIの使用制限に達しましたにゃ。また後でよろしくにゃ。"
	invalidImgText = "対応していない画像形式ですにゃ。png/jpeg/gif/webpでよろしくにゃ。"
	genericErrText = "エラーですにゃ。めんご。"
)

// systemPrompt instructs the model to answer in Slack markup, in the user's
// language, and in character.
const systemPrompt = "You are an friendly Cat AI assistant. " +
	"Please output your response message according to following format. " +
	"- bold/heading: \"*bold*\" " +
	"- italic: \"_italic_\" " +
	"- strikethrough: \"~strikethrough~\" " +
	"- code: \"`code`\" " +
	"- link: \"<https://slack.com|link text>\" " +
	"- block: \"``` code block\" " +
	"- bulleted list: \"* *title*: content\" " +
	"- numbered list: \"1. *title*: content\" " +
	"- quoted sentence: \">sentence\" " +
	"Be sure to include a space before and after the single quote in the sentence. " +
	"ex) word`code`word -> word `code` word " +
	"And Answer in language user uses. " +
	"If you use Japanese, your first person pronoun is \"我輩\" and the ending of your word is \"にゃ\". " +
	"If you use English, the ending of your word is \"meow\". " +
	"If your answer is specifically about programming, Please provide URL sources. " +
	"Let's begin."

// validMimeTypes is the attachment allow-list checked before any upstream
// call; the completion endpoint only accepts these image formats.
var validMimeTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
}

func allowedMime(mimetype string) bool {
	for _, m := range validMimeTypes {
		if m == mimetype {
			return true
		}
	}
	return false
}
