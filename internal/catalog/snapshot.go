package catalog

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// bundledSnapshotPath は同梱スナップショットのパス。
const bundledSnapshotPath = "data/golf_courses.json"

//go:embed data/golf_courses.json
var bundledFS embed.FS

// LocalSnapshotSource はローカルのスナップショット文書を読み込むデータソース。
// ネットワークを使用しない最優先の取り込み経路。
type LocalSnapshotSource struct {
	fsys fs.FS
	path string
}

// NewLocalSnapshotSource はfsys上のpathを読み込むLocalSnapshotSourceを生成する。
func NewLocalSnapshotSource(fsys fs.FS, path string) *LocalSnapshotSource {
	return &LocalSnapshotSource{fsys: fsys, path: path}
}

// NewBundledSnapshotSource はバイナリに同梱されたスナップショットを読み込むデータソースを生成する。
func NewBundledSnapshotSource() *LocalSnapshotSource {
	return NewLocalSnapshotSource(bundledFS, bundledSnapshotPath)
}

// NewFileSnapshotSource はファイルシステム上のファイルを読み込むデータソースを生成する。
// pathが空の場合は同梱スナップショットを使用する。
func NewFileSnapshotSource(path string) *LocalSnapshotSource {
	if path == "" {
		return NewBundledSnapshotSource()
	}
	return NewLocalSnapshotSource(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// Name はデータソース名を返す。
func (s *LocalSnapshotSource) Name() string {
	return "local_snapshot"
}

// Fetch はスナップショット文書を読み込む。
// ファイルが存在しない場合はErrSourceUnavailableを返す。
func (s *LocalSnapshotSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.fsys, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s not found", ErrSourceUnavailable, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("スナップショットの読み込みに失敗しました: %w", err)
	}
	return data, nil
}
