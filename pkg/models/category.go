package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type CategoryKind string

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
)

// Category is a (name, kind) pair. At most one category exists per
// (user, normalized name, kind); NameKey is the normalized dedup key.
type Category struct {
	ID      int64
	UserID  int64
	Name    string
	NameKey string
	Kind    CategoryKind
}

var titleCaser = cases.Title(language.English)

// NormalizeCategoryName returns the display name (title case) and the
// case-insensitive dedup key for a raw provider label. Both are empty
// when the label is blank.
func NormalizeCategoryName(raw string) (display, key string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ""
	}
	return titleCaser.String(strings.ToLower(trimmed)), strings.ToLower(trimmed)
}

// KindForAmount infers a category kind from a transaction amount using
// the ledger sign convention: expenses are positive, income negative.
func KindForAmount(amount int64) CategoryKind {
	if amount < 0 {
		return CategoryIncome
	}
	return CategoryExpense
}
