package commands

import (
	"fmt"
	"strings"

	"github.com/mtuyar/habitd/internal/model"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeEdit     Type = "edit"
	TypeFreq     Type = "freq"
	TypeRemind   Type = "remind"
	TypeUnremind Type = "unremind"
	TypeDelete   Type = "delete"
	TypeDone     Type = "done"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AddArgs struct {
	Title     string
	Frequency model.Frequency
}

type EditArgs struct {
	Target string
	Title  string
}

type FreqArgs struct {
	Target    string
	Frequency model.Frequency
}

type RemindArgs struct {
	Target string
	Time   model.TimeOfDay
	Once   bool
}

// TargetArgs is shared by the commands that only name a task.
type TargetArgs struct {
	Target string
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Edit     *EditArgs
	Freq     *FreqArgs
	Remind   *RemindArgs
	Unremind *TargetArgs
	Delete   *TargetArgs
	Done     *TargetArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeEdit:
		return parseEdit(input, args)
	case TypeFreq:
		return parseFreq(input, args)
	case TypeRemind:
		return parseRemind(input, args)
	case TypeUnremind, TypeDelete, TypeDone:
		return parseTarget(input, Type(head), args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	freq := model.FrequencyDaily
	words := make([]string, 0, len(args))
	for _, arg := range args {
		if strings.HasPrefix(strings.ToLower(arg), "freq:") {
			f, err := model.ParseFrequency(arg[len("freq:"):])
			if err != nil {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
			}
			freq = f
			continue
		}
		words = append(words, arg)
	}
	title := strings.TrimSpace(strings.Join(words, " "))
	if title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Title: title, Frequency: freq}}, nil
}

func parseEdit(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "edit requires target and title"}
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &EditArgs{Target: args[0], Title: strings.Join(args[1:], " ")}}, nil
}

func parseFreq(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "freq requires target and frequency"}
	}
	f, err := model.ParseFrequency(args[1])
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	return Command{Type: TypeFreq, Raw: raw, Freq: &FreqArgs{Target: args[0], Frequency: f}}, nil
}

func parseRemind(raw string, args []string) (Command, error) {
	if len(args) < 2 || len(args) > 3 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "remind requires target and HH:MM"}
	}
	tod, err := model.ParseTimeOfDay(args[1])
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	once := false
	if len(args) == 3 {
		if strings.ToLower(args[2]) != "once" {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unexpected argument: %s", args[2])}
		}
		once = true
	}
	return Command{Type: TypeRemind, Raw: raw, Remind: &RemindArgs{Target: args[0], Time: tod, Once: once}}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a target", typ)}
	}
	target := &TargetArgs{Target: args[0]}
	cmd := Command{Type: typ, Raw: raw}
	switch typ {
	case TypeUnremind:
		cmd.Unremind = target
	case TypeDelete:
		cmd.Delete = target
	case TypeDone:
		cmd.Done = target
	}
	return cmd, nil
}
