package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

// minimalEncoder implements a calm, compact console encoder.
// Format: "13:04:35  WARN  generator  Malformed protected region  kind=data types line=12"
type minimalEncoder struct {
	zapcore.Encoder // Embed a base encoder for With() field serialization
	context         []zapcore.Field
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	ctx := make([]zapcore.Field, len(enc.context))
	copy(ctx, enc.context)
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
		context: ctx,
	}
}

// The Add* methods are reached through With(); keep those fields for every entry.
func (enc *minimalEncoder) AddString(key, value string) {
	enc.context = append(enc.context, zap.String(key, value))
}

func (enc *minimalEncoder) AddInt64(key string, value int64) {
	enc.context = append(enc.context, zap.Int64(key, value))
}

func (enc *minimalEncoder) AddBool(key string, value bool) {
	enc.context = append(enc.context, zap.Bool(key, value))
}

func (enc *minimalEncoder) AddReflected(key string, value interface{}) error {
	enc.context = append(enc.context, zap.Any(key, value))
	return nil
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := bufferPool.Get()

	final.AppendString(ent.Time.Format("15:04:05"))

	// Level: only shown when it is not plain info
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(ent.Level.CapitalString())
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(ent.LoggerName)
	}

	final.AppendString("  ")
	final.AppendString(ent.Message)

	all := make([]zapcore.Field, 0, len(enc.context)+len(fields))
	all = append(all, enc.context...)
	all = append(all, fields...)
	if len(all) > 0 {
		final.AppendString("  ")
		final.AppendString(formatFields(all))
	}

	final.AppendString("\n")
	return final, nil
}

// formatFields renders fields as key=value pairs in the order they were logged.
// Every field is kept; unknown field types fall back to %v.
func formatFields(fields []zapcore.Field) string {
	m := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(m)
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v, ok := m.Fields[f.Key]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, v))
	}
	return strings.Join(parts, " ")
}
