package db

import (
	"context"
	"testing"

	"github.com/vpnda/ledgerlink/pkg/models"
)

func TestUpsertCategoryDedup(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	first, err := database.UpsertCategory(ctx, &models.Category{
		UserID:  1,
		Name:    "Groceries",
		NameKey: "groceries",
		Kind:    models.CategoryExpense,
	})
	if err != nil {
		t.Fatalf("Failed to upsert category: %v", err)
	}

	// Same key again resolves to the same row.
	second, err := database.UpsertCategory(ctx, &models.Category{
		UserID:  1,
		Name:    "Groceries",
		NameKey: "groceries",
		Kind:    models.CategoryExpense,
	})
	if err != nil {
		t.Fatalf("Failed to upsert category again: %v", err)
	}
	if first != second {
		t.Errorf("Expected same category id, got %d and %d", first, second)
	}

	count, err := database.CountCategories(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to count categories: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 category, got %d", count)
	}
}

func TestUpsertCategoryDistinctKinds(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	expense, err := database.UpsertCategory(ctx, &models.Category{
		UserID: 1, Name: "Transfers", NameKey: "transfers", Kind: models.CategoryExpense,
	})
	if err != nil {
		t.Fatalf("Failed to upsert expense category: %v", err)
	}

	income, err := database.UpsertCategory(ctx, &models.Category{
		UserID: 1, Name: "Transfers", NameKey: "transfers", Kind: models.CategoryIncome,
	})
	if err != nil {
		t.Fatalf("Failed to upsert income category: %v", err)
	}

	if expense == income {
		t.Error("Expected distinct categories for distinct kinds")
	}
}

func TestUpsertCategoryScopedToUser(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	a, err := database.UpsertCategory(ctx, &models.Category{
		UserID: 1, Name: "Rent", NameKey: "rent", Kind: models.CategoryExpense,
	})
	if err != nil {
		t.Fatalf("Failed to upsert for user 1: %v", err)
	}

	b, err := database.UpsertCategory(ctx, &models.Category{
		UserID: 2, Name: "Rent", NameKey: "rent", Kind: models.CategoryExpense,
	})
	if err != nil {
		t.Fatalf("Failed to upsert for user 2: %v", err)
	}

	if a == b {
		t.Error("Expected per-user categories to be distinct rows")
	}
}
