package engine

import "encoding/json"

// Notification payload shapes. Chat messages are decoded in two stages: the
// generic envelope first to read the type tag, then the richer system shape
// once player-authored messages have been filtered out.

const (
	messageTypePlayer = 1

	// Flea market system messages are identified by template id; the text
	// phrase is a fallback for template id format drift.
	fleaSoldTemplateID    = "5bdabfb886f7743e152e867e 0"
	fleaExpiredTemplateID = "5bdabfe486f7743e1665e09f 0"
	fleaSoldPhrase        = "was bought by"
)

type groupMemberInfo struct {
	Nickname       string `json:"Nickname"`
	Side           string `json:"Side"`
	Level          int    `json:"Level"`
	MemberCategory int    `json:"MemberCategory"`
}

type groupInvitePayload struct {
	Info groupMemberInfo `json:"Info"`
}

type groupUserLeavePayload struct {
	Nickname string `json:"Nickname"`
}

type groupRaidReadyPayload struct {
	Profile struct {
		Info     groupMemberInfo `json:"Info"`
		IsLeader bool            `json:"isLeader"`
	} `json:"profile"`
}

type groupRaidSettingsPayload struct {
	RaidSettings struct {
		Location string `json:"location"`
		Side     string `json:"side"`
		RaidTime string `json:"timeVariant"`
	} `json:"raidSettings"`
}

type matchOverPayload struct {
	Location string `json:"location"`
	ShortID  string `json:"shortId"`
}

// chatEnvelope is the first-stage decode of a chat notification: only the
// type tag and template id are needed to route the message.
type chatEnvelope struct {
	Message struct {
		Type       int    `json:"type"`
		TemplateID string `json:"templateId"`
		Text       string `json:"text"`
	} `json:"message"`
}

// systemChatPayload is the second-stage decode for system messages.
type systemChatPayload struct {
	Message systemChatMessage `json:"message"`
}

type systemChatMessage struct {
	Type       int    `json:"type"`
	TemplateID string `json:"templateId"`
	Text       string `json:"text"`
	SystemData struct {
		BuyerNickname string `json:"buyerNickname"`
		SoldItem      string `json:"soldItem"`
		ItemCount     int    `json:"itemCount"`
	} `json:"systemData"`
	Items struct {
		Data []receivedItem `json:"data"`
	} `json:"items"`
}

type receivedItem struct {
	Template string `json:"_tpl"`
	Upd      struct {
		StackObjectsCount int `json:"StackObjectsCount"`
	} `json:"upd"`
}

func decodeJSON(payload json.RawMessage, dest any) error {
	return json.Unmarshal(payload, dest)
}
