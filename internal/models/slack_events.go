package models

// SlackSlashEvent is the Message.Slack event: a slash-command style message
// whose reply goes to a one-shot response URL rather than the channel.
type SlackSlashEvent struct {
	OrganisationID string `json:"organisation_id"`
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name,omitempty"`
	Text           string `json:"text"`
	ChannelID      string `json:"channel_id"`
	ResponseURL    string `json:"response_url"`
	TeamID         string `json:"team_id,omitempty"`
}

// SlackBotEvent is the Message.SlackBot event: a message in a threaded bot
// conversation. ThreadTS identifies the thread; when empty the message starts
// a new one and MessageTS becomes the thread root.
type SlackBotEvent struct {
	OrganisationID string `json:"organisation_id"`
	UserID         string `json:"user_id"`
	Text           string `json:"text"`
	ChannelID      string `json:"channel_id"`
	ThreadTS       string `json:"thread_ts,omitempty"`
	MessageTS      string `json:"message_ts"`
	TeamID         string `json:"team_id,omitempty"`
}
