package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"hanzidrill/internal/logger"
	"hanzidrill/internal/mastery"
	"hanzidrill/internal/models"
	"hanzidrill/internal/service"
)

const help = `Type the answer for the marked item and press enter.
  ?              show a hint (twice reveals the answer)
  s              skip the sentence, or continue after finishing it
  h              show history
  lessons        list lessons; "lessons a,b" to drill only those, "lessons all" to reset
  reset          clear all history
  q              quit`

// drill runs the line based review loop
type drill struct {
	svc     *service.ReviewService
	lessons []string
	in      *bufio.Scanner
	out     io.Writer
	log     *zap.Logger

	round *service.Round
}

func newDrill(svc *service.ReviewService, lessons []string, in io.Reader, out io.Writer, log *zap.Logger) *drill {
	return &drill{svc: svc, lessons: lessons, in: bufio.NewScanner(in), out: out, log: logger.OrNop(log)}
}

func (d *drill) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}

func (d *drill) readLine(prompt string) (string, bool) {
	d.printf("%s", prompt)
	if !d.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(d.in.Text()), true
}

func (d *drill) newRound() error {
	round, err := d.svc.Mount()
	if err != nil {
		return err
	}
	d.round = round
	for _, m := range round.Machines {
		if m == nil {
			continue
		}
		m.OnHintShown(func(cmd mastery.Command) { d.showHint(m.Item(), cmd) })
	}
	d.printf("\n%s (%d to drill)\n", round.Sentence.Translation, round.Sentence.DrillableCount())
	return nil
}

func (d *drill) answerFor(item models.DrillableItem) string {
	if d.svc.Mode() == mastery.ModeCharacter {
		return item.Character
	}
	return item.Pinyin
}

func (d *drill) showHint(item models.DrillableItem, cmd mastery.Command) {
	answer := d.answerFor(item)
	switch cmd {
	case mastery.RevealPartial:
		r, _ := utf8.DecodeRuneInString(answer)
		d.printf("hint: starts with %q\n", r)
	case mastery.RevealFull, mastery.Replay:
		d.printf("answer: %s\n", answer)
	}
}

// line renders the sentence with solved items filled in and the current one marked
func (d *drill) line(current int) string {
	var b strings.Builder
	for i, item := range d.round.Sentence.Words {
		m := d.round.Machines[i]
		switch {
		case m == nil:
			b.WriteString(item.Character)
		case m.State().Completed:
			fmt.Fprintf(&b, "%s(%s)", item.Character, item.Pinyin)
		case i == current && d.svc.Mode() == mastery.ModeCharacter:
			fmt.Fprintf(&b, "[%s]", item.Pinyin)
		case i == current:
			fmt.Fprintf(&b, "[%s]", item.Character)
		case d.svc.Mode() == mastery.ModeCharacter:
			b.WriteString("_")
		default:
			b.WriteString(item.Character)
		}
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String())
}

// run drives the loop until the user quits or input ends
func (d *drill) run() error {
	if len(d.lessons) > 0 {
		if err := d.svc.SetLessons(d.lessons); err != nil {
			return err
		}
	}
	if err := d.newRound(); err != nil {
		return err
	}
	d.printf("%s\n", help)

	for {
		next := d.round.Next()
		if next < 0 {
			d.printf("%s\nsentence complete, press enter to continue\n", d.line(next))
		} else {
			d.printf("%s\n", d.line(next))
		}

		input, ok := d.readLine("> ")
		if !ok {
			return d.in.Err()
		}

		quit, err := d.handle(input, next)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (d *drill) handle(input string, next int) (bool, error) {
	switch {
	case input == "q":
		return true, nil

	case input == "h":
		d.printHistory()

	case input == "reset":
		answer, _ := d.readLine("This clears all history. Type 'yes' to confirm: ")
		if answer != "yes" {
			d.printf("reset cancelled\n")
			return false, nil
		}
		if err := d.svc.Reset(); err != nil {
			return false, err
		}
		d.printf("history cleared\n")
		return false, d.newRound()

	case input == "lessons" || strings.HasPrefix(input, "lessons "):
		return false, d.changeLessons(strings.TrimSpace(strings.TrimPrefix(input, "lessons")))

	case input == "s" || next < 0:
		if err := d.svc.Advance(input == "s" && next >= 0); err != nil {
			return false, err
		}
		return false, d.newRound()

	case input == "?":
		d.round.Machines[next].OnRequestHint()

	case input == "":

	default:
		if !d.svc.Answer(d.round.Machines[next], input) {
			d.printf("not quite\n")
		}
	}
	return false, nil
}

func (d *drill) changeLessons(arg string) error {
	tr := d.svc.Tracker()
	if arg == "" {
		active := tr.Lessons()
		if len(active) == 0 {
			d.printf("drilling all lessons\n")
		} else {
			d.printf("drilling: %s\n", strings.Join(active, ", "))
		}
		return nil
	}

	var lessons []string
	if arg != "all" {
		for _, l := range strings.Split(arg, ",") {
			if l = strings.TrimSpace(l); l != "" {
				lessons = append(lessons, l)
			}
		}
	}
	if err := d.svc.SetLessons(lessons); err != nil {
		return err
	}

	if cur, ok := tr.Current(); ok && cur.ID != d.round.Sentence.ID {
		return d.newRound()
	}
	return nil
}

func (d *drill) printHistory() {
	stats, err := d.svc.Stats()
	if err != nil {
		d.log.Warn("stats unavailable", zap.Error(err))
		return
	}
	entries, err := d.svc.HistoryEntries()
	if err != nil {
		d.log.Warn("history unavailable", zap.Error(err))
		return
	}

	d.printf("%d characters: %d green, %d yellow, %d red\n", stats.Total(), stats.Green, stats.Yellow, stats.Red)
	for _, e := range entries {
		d.printf("  %s  %-6s  %s\n", e.Character, e.State, e.Relative)
	}
}
