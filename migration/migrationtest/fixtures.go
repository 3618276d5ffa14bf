// Package migrationtest provides a migration chain and the catalog it
// produces, shared by the engine tests.
package migrationtest

import (
	"github.com/ifrcgo/translatte/catalog"
	"github.com/ifrcgo/translatte/migration"
)

var p = migration.Ptr

// Content1 adds the initial strings.
func Content1() migration.File {
	return migration.File{
		Actions: []migration.Action{
			migration.Add("common", "ok", "OK"),
			migration.Add("common", "cancel", "Cancel"),
			migration.Add("common", "save", "Save"),
			migration.Add("login", "header", "Login"),
			migration.Add("login", "username", "Username"),
			migration.Add("login", "password", "Password"),
			migration.Add("login", "submit", "Submit"),
			migration.Add("signUp", "header", "Sign up"),
			migration.Add("signUp", "email", "Email"),
			migration.Add("home", "title", "Welcome"),
			migration.Add("home", "subtitle", "Dashboard"),
			migration.Add("about", "title", "About"),
		},
	}
}

// Content2 updates values, adds a footer and removes the about page.
func Content2() migration.File {
	return migration.File{
		Parent: "000001-1700000000001.json",
		Actions: []migration.Action{
			migration.Update("common", "ok", migration.UpdateOptions{NewValue: p("Okay")}),
			migration.Update("home", "title", migration.UpdateOptions{NewValue: p("Welcome to GO")}),
			migration.Update("login", "username", migration.UpdateOptions{NewValue: p("Email or username")}),
			migration.Add("home", "footer", "Footer"),
			migration.Remove("about", "title"),
		},
	}
}

// Content3 moves the sign-up strings to the register namespace and renames
// the login button key.
func Content3() migration.File {
	return migration.File{
		Parent: "000002-1700000000002.json",
		Actions: []migration.Action{
			migration.Update("signUp", "header", migration.UpdateOptions{NewNamespace: p("register")}),
			migration.Update("signUp", "email", migration.UpdateOptions{NewNamespace: p("register")}),
			migration.Update("login", "submit", migration.UpdateOptions{NewKey: p("login-button")}),
			migration.Update("home", "footer", migration.UpdateOptions{NewValue: p("Copyright")}),
		},
	}
}

// Content4 swaps login.header and register.header.
func Content4() migration.File {
	return migration.File{
		Parent: "000003-1700000000003.json",
		Actions: []migration.Action{
			migration.Update("login", "header", migration.UpdateOptions{NewNamespace: p("register")}),
			migration.Update("register", "header", migration.UpdateOptions{NewNamespace: p("login")}),
			migration.Update("home", "subtitle", migration.UpdateOptions{NewValue: p("Overview")}),
		},
	}
}

// Content5 removes two strings, adds one and updates the register email.
func Content5() migration.File {
	return migration.File{
		Parent: "000004-1700000000004.json",
		Actions: []migration.Action{
			migration.Remove("common", "save"),
			migration.Remove("home", "footer"),
			migration.Add("common", "close", "Close"),
			migration.Update("register", "email", migration.UpdateOptions{NewValue: p("Email address")}),
		},
	}
}

// Contents returns Content1 to Content5.
func Contents() []migration.File {
	return []migration.File{Content1(), Content2(), Content3(), Content4(), Content5()}
}

// Names are the file names of Contents.
var Names = []string{
	"000001-1700000000001.json",
	"000002-1700000000002.json",
	"000003-1700000000003.json",
	"000004-1700000000004.json",
	"000005-1700000000005.json",
}

// Source is the source-language catalog after Content1 to Content5, as
// namespace, key, value triples.
var Source = [][3]string{
	{"common", "cancel", "Cancel"},
	{"common", "close", "Close"},
	{"common", "ok", "Okay"},
	{"home", "subtitle", "Overview"},
	{"home", "title", "Welcome to GO"},
	{"login", "header", "Sign up"},
	{"login", "login-button", "Submit"},
	{"login", "password", "Password"},
	{"login", "username", "Email or username"},
	{"register", "email", "Email address"},
	{"register", "header", "Login"},
}

// Strings1 is the catalog produced by applying Contents to an empty catalog
// for the "np" language: every source row plus an empty "np" placeholder
// carrying the source hash.
func Strings1() []catalog.Entry {
	var out []catalog.Entry
	for _, s := range Source {
		h := catalog.Hash(s[2])
		out = append(out,
			catalog.Entry{Namespace: s[0], Key: s[1], Language: "en", Value: s[2], Hash: h},
			catalog.Entry{Namespace: s[0], Key: s[1], Language: "np", Value: "", Hash: h},
		)
	}
	return out
}
