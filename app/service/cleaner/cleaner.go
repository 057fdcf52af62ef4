// Package cleaner tidies generated turns before they are stored.
package cleaner

import (
	"courtchat/app/model"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emojiRe      = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{FE0F}\x{200D}]`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	spacesRe     = regexp.MustCompile(`[ \t]{2,}`)
)

const sentenceEnds = `.!?…"*)»`

// Clean returns msg with its content tidied. Only the content changes.
func Clean(msg model.Message) model.Message {
	content := strings.TrimSpace(msg.Content)

	if msg.Name != "" {
		content = strings.TrimSpace(strings.TrimPrefix(content, msg.Name+":"))
	}

	content = emojiRe.ReplaceAllString(content, "")
	content = spacesRe.ReplaceAllString(content, " ")
	content = blankLinesRe.ReplaceAllString(content, "\n\n")
	content = trimUnfinishedSentence(strings.TrimSpace(content))

	msg.Content = content
	return msg
}

// trimUnfinishedSentence cuts a trailing fragment left by the token limit, keeping the text
// untouched when it has no finished sentence at all.
func trimUnfinishedSentence(content string) string {
	last, _ := utf8.DecodeLastRuneInString(content)
	if content == "" || strings.ContainsRune(sentenceEnds, last) {
		return content
	}

	cut := strings.LastIndexAny(content, sentenceEnds)
	if cut < 0 {
		return content
	}

	_, size := utf8.DecodeRuneInString(content[cut:])

	return strings.TrimSpace(content[:cut+size])
}
