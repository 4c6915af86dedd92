package textproc

import (
	"encoding/json"
	"fmt"
	"os"
)

// defaultDtextPhrases translates Chatwork system-event codes into natural
// language. The vocabulary is ecosystem-specific and never complete; unknown
// codes pass through Transform literally, and deployments can extend the table
// via LoadPhrases.
var defaultDtextPhrases = map[string]string{
	"chatroom_groupchat_created": "created this group chat",
	"chatroom_chatname_is":       "set the chat name to",
	"chatroom_member_is":         "updated the member list",
	"chatroom_added":             "added a member",
	"chatroom_deleted":           "removed a member",
	"chatroom_contact_admitted":  "accepted a contact request",
	"chatroom_description_is":    "updated the chat description",
	"chatroom_icon_is":           "changed the chat icon",
	"chatroom_settings_changed":  "changed the room settings",
	"chatroom_chat_edited":       "edited a message",
	"file_uploaded":              "uploaded a file",
	"task_added":                 "added a task",
	"task_done":                  "completed a task",
}

// defaultMaskWords are password-like keywords that trigger whole-line masking.
// Matching is case- and width-folded, so one lowercase half-width spelling per
// term is enough.
var defaultMaskWords = []string{
	"password",
	"passwd",
	"passphrase",
	"pwd",
	"パスワード",
	"ぱすわーど",
	"暗証番号",
	"合言葉",
}

// LoadPhrases reads a JSON object of code->phrase pairs and merges it over the
// package defaults so a partial file only needs the additions.
func LoadPhrases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocab file: %w", err)
	}
	var extra map[string]string
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse vocab file %s: %w", path, err)
	}
	merged := make(map[string]string, len(defaultDtextPhrases)+len(extra))
	for k, v := range defaultDtextPhrases {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged, nil
}

// LoadMaskWords reads a JSON array of keywords and merges it with the defaults.
func LoadMaskWords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mask words file: %w", err)
	}
	var extra []string
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse mask words file %s: %w", path, err)
	}
	return append(append([]string{}, defaultMaskWords...), extra...), nil
}
