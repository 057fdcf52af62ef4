package conversation

import "courtchat/app/model"

// History is the raw working memory of a conversation: appended at the tail, evicted from
// the head by the resummarizer only.
type History struct {
	messages []model.Message
	total    int
}

func (h *History) Append(msg model.Message) {
	h.messages = append(h.messages, msg)
	h.total++
}

func (h *History) EvictFront() (model.Message, bool) {
	if len(h.messages) == 0 {
		return model.Message{}, false
	}

	msg := h.messages[0]
	h.messages[0] = model.Message{}
	h.messages = h.messages[1:]

	return msg, true
}

func (h *History) Len() int {
	return len(h.messages)
}

// Total counts every message ever appended, evicted ones included.
func (h *History) Total() int {
	return h.total
}

func (h *History) Messages() []model.Message {
	return append([]model.Message(nil), h.messages...)
}
