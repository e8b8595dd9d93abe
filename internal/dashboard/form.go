package dashboard

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/campdesk/internal/apiclient"
	"github.com/smileynet/campdesk/internal/campaign"
	"github.com/smileynet/campdesk/internal/session"
)

// field is one labelled text input. key matches the backend's field name
// so server-side field errors land under the right input.
type field struct {
	key   string
	label string
	input textinput.Model
}

func newField(key, label, placeholder string) field {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 128
	return field{key: key, label: label, input: ti}
}

func secretField(key, label string) field {
	f := newField(key, label, "")
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

// fieldSet is a vertical list of text inputs with one focused.
type fieldSet struct {
	fields []field
	focus  int
	errs   map[string]string
}

func newFieldSet(fields ...field) fieldSet {
	fs := fieldSet{fields: fields}
	fs.setFocus(0)
	return fs
}

func (fs *fieldSet) setFocus(i int) tea.Cmd {
	if len(fs.fields) == 0 {
		return nil
	}
	i = (i + len(fs.fields)) % len(fs.fields)
	fs.fields[fs.focus].input.Blur()
	fs.focus = i
	return fs.fields[i].input.Focus()
}

func (fs *fieldSet) next() tea.Cmd { return fs.setFocus(fs.focus + 1) }

func (fs *fieldSet) prev() tea.Cmd { return fs.setFocus(fs.focus - 1) }

// update forwards msg to the focused input.
func (fs *fieldSet) update(msg tea.Msg) tea.Cmd {
	if len(fs.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	fs.fields[fs.focus].input, cmd = fs.fields[fs.focus].input.Update(msg)
	return cmd
}

func (fs fieldSet) value(key string) string {
	for _, f := range fs.fields {
		if f.key == key {
			return f.input.Value()
		}
	}
	return ""
}

func (fs *fieldSet) setValue(key, v string) {
	for i := range fs.fields {
		if fs.fields[i].key == key {
			fs.fields[i].input.SetValue(v)
		}
	}
}

func (fs *fieldSet) reset() {
	for i := range fs.fields {
		fs.fields[i].input.Reset()
	}
	fs.errs = nil
	fs.setFocus(0)
}

func (fs fieldSet) View() string {
	var b strings.Builder
	for i, f := range fs.fields {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fieldLabel(f.label, i == fs.focus))
		b.WriteString(f.input.View())
		b.WriteString(fieldError(fs.errs[f.key]))
	}
	return b.String()
}

// explain splits err into per-field messages and a general message.
// Client-side validation and server field errors fill fields; every
// other failure becomes the general message.
func explain(err error) (fields map[string]string, general string) {
	if err == nil {
		return nil, ""
	}

	var ve *campaign.ValidationError
	if errors.As(err, &ve) {
		fields = make(map[string]string, len(ve.Fields))
		for _, fe := range ve.Fields {
			fields[fe.Field] = fe.Message
		}
		return fields, ""
	}

	var he *apiclient.HTTPError
	if errors.As(err, &he) && len(he.Body.Errors) > 0 {
		fields = make(map[string]string, len(he.Body.Errors))
		for _, fe := range he.Body.Errors {
			if prior, ok := fields[fe.Field]; ok {
				fields[fe.Field] = prior + "; " + fe.Message
				continue
			}
			fields[fe.Field] = fe.Message
		}
		return fields, apiclient.Describe(err)
	}

	return nil, describe(err)
}

// describe renders err for the status line.
func describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, session.ErrBadCredentials):
		return "invalid username or password"
	case errors.Is(err, session.ErrMissingCredentials):
		return "username and password are required"
	case errors.Is(err, session.ErrSessionExpired):
		return "session expired, please sign in again"
	default:
		return apiclient.Describe(err)
	}
}

// parseAmount reads a decimal form value. Blank reads as zero so the
// validator reports the rule rather than a parse error.
func parseAmount(key, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, &campaign.ValidationError{Fields: []campaign.FieldError{{Field: key, Message: "must be a number"}}}
	}
	return v, nil
}
