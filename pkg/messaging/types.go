package messaging

type ChangeTopic string

const (
	SearchTracked   ChangeTopic = "search_tracked"
	BookmarkToggled ChangeTopic = "bookmark_toggled"
)

const DefaultPrefix = "jobboard"
