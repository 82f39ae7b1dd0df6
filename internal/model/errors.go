package model

import (
	"fmt"
	"strings"
)

// ValidationError describes one rejected parameter adjustment.
type ValidationError struct {
	Section string `json:"section,omitempty"`
	Param   string `json:"param,omitempty"`
	Reason  string `json:"reason"`
}

func (e ValidationError) Error() string {
	switch {
	case e.Param != "" && e.Section != "":
		return fmt.Sprintf("%s.%s: %s", e.Section, e.Param, e.Reason)
	case e.Param != "":
		return fmt.Sprintf("%s: %s", e.Param, e.Reason)
	case e.Section != "":
		return fmt.Sprintf("%s: %s", e.Section, e.Reason)
	}
	return e.Reason
}

// ValidationErrors collects every failure of an adjustment.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation error(s): %s", len(es), strings.Join(msgs, "; "))
}

// DataError reports a problem with reference data.
// Warnings are logged and do not stop a run.
type DataError struct {
	Source  string
	Row     int // 1-based data row, 0 when not row specific
	Msg     string
	Warning bool
}

func (e *DataError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s row %d: %s", e.Source, e.Row, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Msg)
}
