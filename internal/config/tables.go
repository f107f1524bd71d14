package config

// DefaultSearchEngines returns the engines whose result pages are mined for
// search terms, in match order.
func DefaultSearchEngines() []SearchEngine {
	return []SearchEngine{
		{Key: "google", Param: "q", Name: "Google"},
		{Key: "bing", Param: "q", Name: "Bing"},
		{Key: "yahoo", Param: "p", Name: "Yahoo!"},
		{Key: "ask", Param: "q", Name: "Ask"},
		{Key: "duckduckgo", Param: "q", Name: "DuckDuckGo"},
	}
}

// DefaultStopWords returns the words dropped from unquoted search queries.
func DefaultStopWords() []string {
	return []string{
		"of", "and", "the", "to", "for", "in", "a", "i", "an", "are", "as", "at",
		"be", "by", "from", "is", "on", "was", "that", "this", "or", "when", "where",
		"what", "how", "with", "-", "&", "+",
		// Single letters left over from tokenising
		"b", "c", "d", "e", "f", "g", "h", "j", "k", "l", "m", "n", "o", "p",
		"q", "r", "s", "t", "u", "v", "w", "x", "y", "z",
	}
}

// DefaultTopLevelDomains returns the generic top-level labels stripped when
// computing a canonical domain. Two-letter country codes are handled
// separately.
func DefaultTopLevelDomains() []string {
	return []string{
		"aero", "arpa", "asia", "biz", "cat", "com", "coop", "edu", "gov", "info",
		"int", "jobs", "mil", "mobi", "museum", "name", "net", "org", "pro", "tel",
		"travel",
	}
}

// DefaultFileCategories maps lower-case file extensions to the category
// shown in the file-access tree.
func DefaultFileCategories() map[string]string {
	return map[string]string{
		// Images
		"jpg":  "image",
		"jpeg": "image",
		"png":  "image",
		"gif":  "image",
		"bmp":  "image",
		"tiff": "image",
		"ico":  "image",

		// Office documents
		"doc":  "document",
		"docx": "document",
		"xls":  "spreadsheet",
		"xlsx": "spreadsheet",
		"pdf":  "pdf file",
		"ps":   "pdf file",

		// Web
		"htm":  "web file",
		"html": "web file",
		"css":  "web file",

		// Archives & text
		"zip": "compressed file",
		"gz":  "compressed file",
		"csv": "text file",
		"txt": "text file",

		// Media
		"mp3":  "audio file",
		"wav":  "audio file",
		"ogg":  "audio file",
		"wma":  "audio file",
		"avi":  "video file",
		"mpeg": "video file",
		"mp4":  "video file",

		// Source code
		"py":   "programming file",
		"pyc":  "programming file",
		"pyw":  "programming file",
		"cpp":  "programming file",
		"c":    "programming file",
		"php":  "programming file",
		"js":   "programming file",
		"sql":  "programming file",
		"java": "programming file",
	}
}
