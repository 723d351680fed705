package form

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/coursedesk/internal/rules"
)

const signupYAML = `
id: auth/signup
title: Create your account
fields:
  - name: email
    rules:
      - check: required
        message: Email is required
      - check: email
  - name: phone
    rules:
      - check: phone
  - name: password
    secret: true
    rules:
      - check: strong_password
        message: Password is too weak
  - name: confirm_password
    rules:
      - check: match
        field: password
        message: Passwords do not match
  - name: rating
    initial: 0
    rules:
      - check: min_number
        min: 1
        message: Please select a rating
  - name: newsletter
    initial: false
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"forms/signup.yaml": {Data: []byte(signupYAML)},
		"forms/README.md":   {Data: []byte("not a form")},
	}
}

func TestLoadFormDef(t *testing.T) {
	fd, err := LoadFormDef(testFS(), "forms/signup.yaml")
	require.NoError(t, err)

	assert.Equal(t, "auth/signup", fd.ID)
	assert.Len(t, fd.Fields, 6)
	assert.Equal(t, Values{
		"email":            "",
		"phone":            "",
		"password":         "",
		"confirm_password": "",
		"rating":           0,
		"newsletter":       false,
	}, fd.Initial())
}

func TestFormDefValidator(t *testing.T) {
	fd, err := LoadFormDef(testFS(), "forms/signup.yaml")
	require.NoError(t, err)
	validate := fd.Validator()

	res := validate(fd.Initial())
	assert.False(t, res.Valid)
	assert.Equal(t, rules.Errors{
		"email":    "Email is required",
		"phone":    "Please enter a valid phone number.",
		"password": "Password is too weak",
		"rating":   "Please select a rating",
	}, res.Errors, "confirm_password matches an empty password")

	res = validate(Values{
		"email":            "a@b.com",
		"phone":            "(987) 654-3210",
		"password":         "secret12",
		"confirm_password": "secret13",
		"rating":           5,
		"newsletter":       true,
	})
	assert.Equal(t, rules.Errors{"confirm_password": "Passwords do not match"}, res.Errors)

	res = validate(Values{
		"email":            "a@b.com",
		"phone":            "9876543210",
		"password":         "secret12",
		"confirm_password": "secret12",
		"rating":           "4",
		"newsletter":       false,
	})
	assert.True(t, res.Valid)
}

func TestFormDefNewController(t *testing.T) {
	fd, err := LoadFormDef(testFS(), "forms/signup.yaml")
	require.NoError(t, err)

	called := false
	c := fd.NewController(func(context.Context, Values) error { called = true; return nil })

	assert.Equal(t, "auth/signup", c.ID())
	assert.False(t, c.Submit(context.Background()))
	assert.False(t, called)
	assert.Equal(t, "Email is required", c.Errors().Get().Get("email"))
}

func TestRegistryLoadDir(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.LoadDir(testFS(), "forms"))

	fd, ok := reg.Get("auth/signup")
	require.True(t, ok)
	assert.Equal(t, "Create your account", fd.Title)
	assert.Equal(t, []string{"auth/signup"}, reg.IDs())

	_, ok = reg.Get("auth/missing")
	assert.False(t, ok)
}

func TestRegistryLoadDir_MissingDirIsNotAnError(t *testing.T) {
	reg := NewRegistry()
	assert.NoError(t, reg.LoadDir(fstest.MapFS{}, "forms"))
}

func TestValidateFormDef(t *testing.T) {
	cases := map[string]string{
		"missing id":      "fields:\n  - name: a\n",
		"no fields":       "id: x\n",
		"unnamed field":   "id: x\nfields:\n  - label: A\n",
		"duplicate field": "id: x\nfields:\n  - name: a\n  - name: a\n",
		"unknown check":   "id: x\nfields:\n  - name: a\n    rules:\n      - check: shiny\n",
		"match no field":  "id: x\nfields:\n  - name: a\n    rules:\n      - check: match\n",
		"match unknown":   "id: x\nfields:\n  - name: a\n    rules:\n      - check: match\n        field: b\n",
		"bad yaml":        "id: [x\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			fsys := fstest.MapFS{"f.yaml": {Data: []byte(doc)}}
			_, err := LoadFormDef(fsys, "f.yaml")
			assert.Error(t, err)

			reg := NewRegistry()
			assert.Error(t, reg.LoadDir(fsys, "."))
		})
	}
}

func TestFormDefRedact(t *testing.T) {
	fd, err := LoadFormDef(testFS(), "forms/signup.yaml")
	require.NoError(t, err)

	c := fd.NewController(nil)
	c.UpdateField("email", "a@b.co")
	c.UpdateField("password", "Secret123")

	snap := fd.Redact(c.Snapshot())
	assert.Equal(t, "", snap.Values["password"])
	assert.Equal(t, "a@b.co", snap.Values["email"])
	assert.Equal(t, "Secret123", c.Values().Get()["password"], "controller state untouched")
}
