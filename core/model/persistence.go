package model

import (
	"encoding/gob"
	"io"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// SaveModelToWriter はモデルをgob形式でio.Writerに保存する
//
// インターフェース値を保存する場合は、具体型を事前に gob.Register しておくこと。
//
// 使用例:
//
//	var buf bytes.Buffer
//	err := model.SaveModelToWriter(&buf, &envelope)
func SaveModelToWriter(w io.Writer, m interface{}) error {
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
//
// パラメータ:
//   - r: 読み込み元のReader
//   - m: 読み込み先のモデル（ポインタ）
func LoadModelFromReader(r io.Reader, m interface{}) error {
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
