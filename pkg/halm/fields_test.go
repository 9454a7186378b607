package halm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_RoundTripPreservesUnknownMembers(t *testing.T) {
	body := `{"label":"Workaround","type":"largeText","largeText":{"text":"restart"},"fieldOptions":{"required":true}}`

	var field Field
	require.NoError(t, json.Unmarshal([]byte(body), &field))
	assert.Equal(t, "Workaround", field.Label)
	assert.Equal(t, "largeText", field.Type)

	out, err := json.Marshal(field)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(out))
}

func TestField_RoundTripTypedMembers(t *testing.T) {
	body := `{"label":"Priority","type":"menuItem","menuItem":{"id":3,"label":"Must Fix"}}`

	var field Field
	require.NoError(t, json.Unmarshal([]byte(body), &field))
	require.NotNil(t, field.MenuItem)
	require.NotNil(t, field.MenuItem.ID)
	assert.Equal(t, 3, *field.MenuItem.ID)
	assert.Equal(t, "Must Fix", field.MenuItem.Label)

	out, err := json.Marshal(field)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(out))
}

func TestFieldValue_PerType(t *testing.T) {
	summary := "Crash when saving"
	date := "2025-03-04T10:00:00Z"
	fields := []Field{
		{Label: "Summary", Type: FieldTypeString, String: &summary},
		{Label: "Date Entered", Type: FieldTypeDateTime, DateTime: &date},
		{Label: "Priority", Type: FieldTypeMenuItem, MenuItem: &MenuItem{Label: "Must Fix"}},
		{Label: "Description", Type: FieldTypeFormattedString, FormattedString: &FormattedString{Text: "steps"}},
		{Label: "Found by", Type: FieldTypeUser, User: &UserField{Username: "administrator"}},
	}

	v, ok := FieldValue(fields, "Summary")
	require.True(t, ok)
	assert.Equal(t, summary, v)

	v, ok = FieldValue(fields, "Date Entered")
	require.True(t, ok)
	assert.Equal(t, date, v)

	v, ok = FieldValue(fields, "Priority")
	require.True(t, ok)
	assert.Equal(t, MenuItem{Label: "Must Fix"}, v)

	v, ok = FieldValue(fields, "Description")
	require.True(t, ok)
	assert.Equal(t, FormattedString{Text: "steps"}, v)

	v, ok = FieldValue(fields, "Found by")
	require.True(t, ok)
	assert.Equal(t, UserField{Username: "administrator"}, v)

	_, ok = FieldValue(fields, "Severity")
	assert.False(t, ok)
}

func TestStringField_DisplayValues(t *testing.T) {
	summary := "Crash when saving"
	fields := []Field{
		{Label: "Summary", Type: FieldTypeString, String: &summary},
		{Label: "Priority", Type: FieldTypeMenuItem, MenuItem: &MenuItem{Label: "Must Fix"}},
		{Label: "Description", Type: FieldTypeFormattedString, FormattedString: &FormattedString{Text: "steps"}},
		{Label: "Found by", Type: FieldTypeUser, User: &UserField{Username: "administrator"}},
	}

	assert.Equal(t, "Crash when saving", StringField(fields, "Summary"))
	assert.Equal(t, "Must Fix", StringField(fields, "Priority"))
	assert.Equal(t, "steps", StringField(fields, "Description"))
	assert.Equal(t, "administrator", StringField(fields, "Found by"))
	assert.Equal(t, "", StringField(fields, "Severity"))
}

func TestSetFieldValue_MenuItemClearsID(t *testing.T) {
	body := `{"label":"Priority","type":"menuItem","menuItem":{"id":3,"label":"Must Fix"}}`
	var field Field
	require.NoError(t, json.Unmarshal([]byte(body), &field))
	fields := []Field{field}

	ok := SetFieldValue(fields, "Priority", "Before Beta")

	require.True(t, ok)
	require.NotNil(t, fields[0].MenuItem)
	assert.Nil(t, fields[0].MenuItem.ID)
	assert.Equal(t, "Before Beta", fields[0].MenuItem.Label)
}

func TestSetFieldValue_ScalarTypes(t *testing.T) {
	fields := []Field{
		{Label: "Summary", Type: FieldTypeString},
		{Label: "Date Entered", Type: FieldTypeDateTime},
		{Label: "Description", Type: FieldTypeFormattedString},
		{Label: "Found by", Type: FieldTypeUser},
	}

	require.True(t, SetFieldValue(fields, "Summary", "New summary"))
	require.True(t, SetFieldValue(fields, "Date Entered", "2025-04-01T08:00:00Z"))
	require.True(t, SetFieldValue(fields, "Description", "plain text"))
	require.True(t, SetFieldValue(fields, "Found by", "sam"))

	assert.Equal(t, "New summary", StringField(fields, "Summary"))
	assert.Equal(t, "2025-04-01T08:00:00Z", StringField(fields, "Date Entered"))
	require.NotNil(t, fields[2].FormattedString)
	assert.False(t, fields[2].FormattedString.IsFormatted)
	assert.Equal(t, "plain text", fields[2].FormattedString.Text)
	assert.Equal(t, "sam", StringField(fields, "Found by"))
}

func TestSetFieldValue_UnknownLabel(t *testing.T) {
	assert.False(t, SetFieldValue([]Field{{Label: "Summary", Type: FieldTypeString}}, "Severity", "High"))
}

func TestSetFieldValue_WrongValueType(t *testing.T) {
	fields := []Field{{Label: "Summary", Type: FieldTypeString}}

	assert.False(t, SetFieldValue(fields, "Summary", 42))
}

func TestSetFieldValue_UnmodeledType(t *testing.T) {
	fields := []Field{{Label: "Steps", Type: "largeText"}}

	require.True(t, SetFieldValue(fields, "Steps", map[string]string{"text": "restart"}))

	out, err := json.Marshal(fields[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"Steps","type":"largeText","largeText":{"text":"restart"}}`, string(out))
}

func TestIssue_RoundTripPreservesUnknownMembers(t *testing.T) {
	body := `{
		"id": 7,
		"tag": "BUG-7",
		"fields": [{"label":"Summary","type":"string","string":"Crash"}],
		"links": [{"rel":"self","href":"/issues/7"}],
		"createdBy": {"username":"administrator"}
	}`

	var issue Issue
	require.NoError(t, json.Unmarshal([]byte(body), &issue))
	assert.Equal(t, 7, issue.ID)
	assert.Equal(t, "BUG-7", issue.Tag)
	require.Len(t, issue.Fields, 1)

	out, err := json.Marshal(issue)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(out))
}

func TestIssue_FieldLookup(t *testing.T) {
	summary := "Crash"
	issue := Issue{Fields: []Field{{Label: "Summary", Type: FieldTypeString, String: &summary}}}

	require.NotNil(t, issue.Field("Summary"))
	assert.Nil(t, issue.Field("Severity"))
}
