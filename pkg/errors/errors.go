// Package errors はプロジェクト全体のエラーハンドリングと警告の型を提供します。
// scikit-learnの警告・例外システムにインスパイアされており、構造化されたエラー情報を提供します。
// 警告はグローバルなハンドラではなく、呼び出し側が渡したロガーで記録されます。
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	scikit-learn互換の警告型
//
// ===========================================================================

// ConvergenceWarning は最適化アルゴリズムが収束しなかった場合に発生する警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting alpha.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// UndefinedMetricWarning は評価指標が計算できない場合に発生する警告です。
// 例えば、テスト集合の目的変数がすべて同じ値でR²の分母がゼロになる場合など。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // この条件で返される値
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning は新しいUndefinedMetricWarningを作成します。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// UnmappedCategoryWarning は固定マップに存在しないカテゴリ値を欠損値や番兵値に置き換えた場合の警告です。
type UnmappedCategoryWarning struct {
	Column      string
	Values      []string // マップに存在しなかった値（重複なし、出現順）
	Count       int      // 置き換えた行数
	Replacement float64
}

func (w *UnmappedCategoryWarning) Error() string {
	return fmt.Sprintf("column '%s': %d value(s) %v not in the category map were replaced with %v",
		w.Column, w.Count, w.Values, w.Replacement)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UnmappedCategoryWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("column", w.Column).
		Strs("values", w.Values).
		Int("count", w.Count).
		Float64("replacement", w.Replacement).
		Str("type", "UnmappedCategoryWarning")
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("examscore: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("examscore: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("examscore: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("examscore: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("examscore: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("examscore: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// SchemaError はデータセットの列構成が宣言されたスキーマと一致しない場合のエラーです。
type SchemaError struct {
	Stage   string
	Missing []string // 存在しない必須列
	Invalid []string // 型や宣言に問題のある列
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns ["+strings.Join(e.Missing, ", ")+"]")
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid columns ["+strings.Join(e.Invalid, ", ")+"]")
	}
	return fmt.Sprintf("examscore: %s: schema mismatch: %s", e.Stage, strings.Join(parts, "; "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SchemaError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("stage", e.Stage).
		Strs("missing", e.Missing).
		Strs("invalid", e.Invalid).
		Str("type", "SchemaError")
}

// NewSchemaError は新しいSchemaErrorを作成し、スタックトレースを付与します。
func NewSchemaError(stage string, missing, invalid []string) error {
	return errors.WithStack(&SchemaError{Stage: stage, Missing: missing, Invalid: invalid})
}

// UnmappedCategoryError は固定マップに存在しないカテゴリ値が見つかり、
// ポリシーとして失敗が選ばれている場合のエラーです。
type UnmappedCategoryError struct {
	Column string
	Values []string
	Count  int
}

func (e *UnmappedCategoryError) Error() string {
	return fmt.Sprintf("examscore: column '%s': %d value(s) not in the category map: %v", e.Column, e.Count, e.Values)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnmappedCategoryError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Strs("values", e.Values).
		Int("count", e.Count).
		Str("type", "UnmappedCategoryError")
}

// NewUnmappedCategoryError は新しいUnmappedCategoryErrorを作成し、スタックトレースを付与します。
func NewUnmappedCategoryError(column string, values []string, count int) error {
	return errors.WithStack(&UnmappedCategoryError{Column: column, Values: values, Count: count})
}

// IncompatibleArtifactError は保存済みアーティファクトの特徴量が推論時の入力契約と
// 一致しない場合のエラーです。
type IncompatibleArtifactError struct {
	Expected []string // 推論で受け付ける特徴量名
	Got      []string // アーティファクトに記録された特徴量名
	Unknown  []string // 契約に含まれない特徴量名
}

func (e *IncompatibleArtifactError) Error() string {
	return fmt.Sprintf("examscore: artifact features %v are incompatible with the inference input %v (unknown: %v)",
		e.Got, e.Expected, e.Unknown)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *IncompatibleArtifactError) MarshalZerologObject(event *zerolog.Event) {
	event.Strs("expected", e.Expected).
		Strs("got", e.Got).
		Strs("unknown", e.Unknown).
		Str("type", "IncompatibleArtifactError")
}

// NewIncompatibleArtifactError は新しいIncompatibleArtifactErrorを作成し、スタックトレースを付与します。
func NewIncompatibleArtifactError(expected, got, unknown []string) error {
	return errors.WithStack(&IncompatibleArtifactError{Expected: expected, Got: got, Unknown: unknown})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// StackTrace はcockroachdb/errorsが記録したスタックトレースを返します。記録がなければ空文字列です。
func StackTrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")

	// ErrSourceNotFound は入力データファイルが存在しない場合のエラーです。
	ErrSourceNotFound = New("data source not found")

	// ErrArtifactsNotFound は学習済みモデルまたはスケーラーのファイルが存在しない場合のエラーです。
	ErrArtifactsNotFound = New("artifacts not found: run training first")
)
