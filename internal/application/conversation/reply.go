package conversation

// Button is a transport-neutral inline keyboard button. Data is the callback
// payload routed back through HandleCallback; URL buttons open a link
// instead.
type Button struct {
	Label string
	Data  string
	URL   string
}

// File is an outbound document attachment. Exactly one of Content and
// FileRef is set: Content uploads new bytes, FileRef re-sends a file the
// transport already stores.
type File struct {
	FileName string
	Content  []byte
	FileRef  string
	Caption  string
	Photo    bool
}

// Reply is one outbound message produced by the conversation manager. The
// interface layer maps it onto the transport; the manager never touches
// transport types.
type Reply struct {
	Text    string
	Buttons [][]Button

	// Markdown enables rich formatting for Text.
	Markdown bool

	// DisableWebPreview suppresses link previews (job postings carry URLs).
	DisableWebPreview bool

	// MenuButton shows the persistent "Menu" reply keyboard under the input
	// field.
	MenuButton bool

	// Document, when set, sends a file instead of (or alongside) Text.
	Document *File
}

func textReply(text string) Reply {
	return Reply{Text: text}
}

func markdownReply(text string) Reply {
	return Reply{Text: text, Markdown: true}
}

func one(r Reply) []Reply {
	return []Reply{r}
}

func oneText(text string) []Reply {
	return one(textReply(text))
}
