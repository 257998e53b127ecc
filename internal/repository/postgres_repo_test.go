package repository

import (
	"testing"
)

// 各PostgresリポジトリがNewで正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Fatal("expected non-nil user repo")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Fatal("expected non-nil session repo")
	}
	if NewPostgresSwapRepo(nil) == nil {
		t.Fatal("expected non-nil swap repo")
	}
	if NewPostgresFeedbackRepo(nil) == nil {
		t.Fatal("expected non-nil feedback repo")
	}
}
