package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var askPattern = regexp.MustCompile(`(?s)^(\w+)\s*:\s*(.*)$`)

var slashKinds = map[string]Kind{
	"intro":   KindIntro,
	"start":   KindStart,
	"next":    KindNext,
	"prev":    KindPrev,
	"goto":    KindGoto,
	"ask":     KindAsk,
	"example": KindExample,
	"qa":      KindQA,
	"pick":    KindPick,
	"outro":   KindOutro,
	"pause":   KindPause,
	"resume":  KindResume,
	"skip":    KindSkip,
	"stop":    KindStop,
	"status":  KindStatus,
}

// Parse turns raw operator text into a Command. It is total: malformed input
// yields KindUnknown or KindError with a Reason, never an error value.
//
// Text that does not start with "/" is an answer relay; the whole text is
// kept as the answer summary. Slash commands are matched case-insensitively
// against the fixed vocabulary, and argument validation happens here so the
// queue and state machine only ever see well-formed commands.
func Parse(text string) Command {
	raw := strings.TrimSpace(text)
	cmd := Command{RawText: raw, Timestamp: time.Now()}

	if !strings.HasPrefix(raw, "/") {
		cmd.Kind = KindAnswer
		cmd.Summary = raw
		return cmd
	}

	name, args, _ := strings.Cut(raw[1:], " ")
	name = strings.ToLower(strings.TrimSpace(name))
	args = strings.TrimSpace(args)

	kind, ok := slashKinds[name]
	if !ok {
		cmd.Kind = KindUnknown
		cmd.Reason = fmt.Sprintf("unknown command: /%s", name)
		return cmd
	}
	cmd.Kind = kind

	switch kind {
	case KindPause, KindStop:
		cmd.Priority = PriorityInterrupt
	case KindGoto:
		n, err := strconv.Atoi(args)
		if err != nil {
			cmd.Kind = KindError
			cmd.Reason = "/goto requires a slide number, e.g. /goto 5"
			return cmd
		}
		cmd.Slide = n
	case KindPick:
		n, err := strconv.Atoi(args)
		if err != nil {
			cmd.Kind = KindError
			cmd.Reason = "/pick requires a question id, e.g. /pick 3"
			return cmd
		}
		cmd.QuestionID = n
	case KindAsk:
		if args == "" {
			cmd.Kind = KindError
			cmd.Reason = "format: /ask Name: Your question here"
			return cmd
		}
		if m := askPattern.FindStringSubmatch(args); m != nil {
			cmd.TargetName = m[1]
			cmd.Question = strings.TrimSpace(m[2])
			return cmd
		}
		if strings.ContainsAny(args, ": \t") {
			cmd.Kind = KindError
			cmd.Reason = "format: /ask Name: Your question here"
			return cmd
		}
		// Bare name: the question is filled from the slide configuration.
		cmd.TargetName = args
	}
	return cmd
}
