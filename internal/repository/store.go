package repository

import (
	"context"
	"errors"
	"log/slog"
)

var (
	// ErrStoreUnavailable はデータベースが未設定の状態で書き込みを行った場合に返される。
	ErrStoreUnavailable = errors.New("database not available")
	// ErrNotOwned は対象が存在しないか、呼び出し元が所有者でない場合に返される。
	ErrNotOwned = errors.New("record not found or not owned by caller")
	// ErrNotFound は状態遷移の対象が存在しない場合に返される。
	ErrNotFound = errors.New("record not found")
	// ErrNotPending は保留中でない取引を完了・取消しようとした場合に返される。
	ErrNotPending = errors.New("purchase is not pending")
	// ErrAccountUnavailable は出品中でない出品に対する取引を完了しようとした場合に返される。
	ErrAccountUnavailable = errors.New("account is not active")
)

// warnUnavailable はストア未設定時の読み取りを警告ログに残す。
func warnUnavailable(ctx context.Context, op string) {
	slog.WarnContext(ctx, "database not available",
		slog.String("op", op),
	)
}
