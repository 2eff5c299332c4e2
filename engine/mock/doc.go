// Package mock provides a scripted engine.Engine for tests.
//
// Statements are matched by their exact SQL text:
//
//	m := mock.New()
//	m.On("SELECT id, name FROM users").
//		ReturnColumns(mock.Col("id", engine.CodeInt), mock.Col("name", engine.CodeVChar)).
//		ReturnRows([]any{1, "ada"}, []any{2, nil})
//
// The engine records every call and counts prepares, statement closes and
// freed results so tests can assert handle lifecycles.
package mock
