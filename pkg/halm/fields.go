package halm

import "encoding/json"

// Field type discriminators used by the REST API. The value of a field lives
// under a member named after its type, e.g. {"label": "Notes", "type":
// "string", "string": "..."}.
const (
	FieldTypeString          = "string"
	FieldTypeDateTime        = "dateTime"
	FieldTypeMenuItem        = "menuItem"
	FieldTypeFormattedString = "formattedString"
	FieldTypeUser            = "user"
)

// MenuItem is a selection from a field's menu. When setting a value by label
// the id is left unset so the server resolves it.
type MenuItem struct {
	ID    *int   `json:"id,omitempty"`
	Label string `json:"label"`
}

// FormattedString is a text value that may carry formatting.
type FormattedString struct {
	IsFormatted bool   `json:"isFormatted"`
	Text        string `json:"text"`
}

// UserField references a Helix ALM user by username.
type UserField struct {
	Username string `json:"username"`
}

// Field is one entry of an item's "fields" list. The typed members cover the
// field types this client works with; members of other types are preserved
// verbatim across decode/encode so updates round-trip without data loss.
type Field struct {
	Label string
	Type  string

	String          *string
	DateTime        *string
	MenuItem        *MenuItem
	FormattedString *FormattedString
	User            *UserField

	raw map[string]json.RawMessage
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*f = Field{}
	take := func(key string, dst any) error {
		raw, ok := m[key]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return err
		}
		delete(m, key)
		return nil
	}
	if err := take("label", &f.Label); err != nil {
		return err
	}
	if err := take("type", &f.Type); err != nil {
		return err
	}
	if err := take(FieldTypeString, &f.String); err != nil {
		return err
	}
	if err := take(FieldTypeDateTime, &f.DateTime); err != nil {
		return err
	}
	if err := take(FieldTypeMenuItem, &f.MenuItem); err != nil {
		return err
	}
	if err := take(FieldTypeFormattedString, &f.FormattedString); err != nil {
		return err
	}
	if err := take(FieldTypeUser, &f.User); err != nil {
		return err
	}
	if len(m) > 0 {
		f.raw = m
	}
	return nil
}

func (f Field) MarshalJSON() ([]byte, error) {
	m := make(map[string]json.RawMessage, len(f.raw)+7)
	for k, v := range f.raw {
		m[k] = v
	}
	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		m[key] = raw
		return nil
	}
	if err := put("label", f.Label); err != nil {
		return nil, err
	}
	if err := put("type", f.Type); err != nil {
		return nil, err
	}
	if f.String != nil {
		if err := put(FieldTypeString, f.String); err != nil {
			return nil, err
		}
	}
	if f.DateTime != nil {
		if err := put(FieldTypeDateTime, f.DateTime); err != nil {
			return nil, err
		}
	}
	if f.MenuItem != nil {
		if err := put(FieldTypeMenuItem, f.MenuItem); err != nil {
			return nil, err
		}
	}
	if f.FormattedString != nil {
		if err := put(FieldTypeFormattedString, f.FormattedString); err != nil {
			return nil, err
		}
	}
	if f.User != nil {
		if err := put(FieldTypeUser, f.User); err != nil {
			return nil, err
		}
	}
	return json.Marshal(m)
}

// FieldValue returns the typed value of the field with the given label and
// whether such a field exists. The concrete type depends on the field type:
// string and dateTime yield string, menuItem a MenuItem, formattedString a
// FormattedString, user a UserField; unrecognized types yield the raw JSON
// of their type-keyed member.
func FieldValue(fields []Field, label string) (any, bool) {
	for i := range fields {
		f := &fields[i]
		if f.Label != label {
			continue
		}
		switch f.Type {
		case FieldTypeString:
			if f.String != nil {
				return *f.String, true
			}
			return "", true
		case FieldTypeDateTime:
			if f.DateTime != nil {
				return *f.DateTime, true
			}
			return "", true
		case FieldTypeMenuItem:
			if f.MenuItem != nil {
				return *f.MenuItem, true
			}
			return MenuItem{}, true
		case FieldTypeFormattedString:
			if f.FormattedString != nil {
				return *f.FormattedString, true
			}
			return FormattedString{}, true
		case FieldTypeUser:
			if f.User != nil {
				return *f.User, true
			}
			return UserField{}, true
		default:
			return f.raw[f.Type], true
		}
	}
	return nil, false
}

// StringField returns the display string of the labelled field, or "" when
// the field is missing. Menu items yield their label, formatted strings
// their text, users their username.
func StringField(fields []Field, label string) string {
	v, ok := FieldValue(fields, label)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case MenuItem:
		return t.Label
	case FormattedString:
		return t.Text
	case UserField:
		return t.Username
	case json.RawMessage:
		return string(t)
	default:
		return ""
	}
}

// SetFieldValue sets the value of the labelled field according to its type:
// menu items select by label with the id cleared so the server resolves it,
// formatted strings receive plain text, user fields a username, string and
// dateTime their scalar. Values for other field types are marshalled into
// the type-keyed member as-is. Reports whether a field was updated.
func SetFieldValue(fields []Field, label string, value any) bool {
	for i := range fields {
		f := &fields[i]
		if f.Label != label {
			continue
		}
		switch f.Type {
		case FieldTypeMenuItem:
			s, ok := value.(string)
			if !ok {
				return false
			}
			f.MenuItem = &MenuItem{Label: s}
		case FieldTypeFormattedString:
			s, ok := value.(string)
			if !ok {
				return false
			}
			f.FormattedString = &FormattedString{IsFormatted: false, Text: s}
		case FieldTypeUser:
			s, ok := value.(string)
			if !ok {
				return false
			}
			f.User = &UserField{Username: s}
		case FieldTypeString:
			s, ok := value.(string)
			if !ok {
				return false
			}
			f.String = &s
		case FieldTypeDateTime:
			s, ok := value.(string)
			if !ok {
				return false
			}
			f.DateTime = &s
		default:
			raw, err := json.Marshal(value)
			if err != nil {
				return false
			}
			if f.raw == nil {
				f.raw = make(map[string]json.RawMessage, 1)
			}
			f.raw[f.Type] = raw
		}
		return true
	}
	return false
}
