package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/mkd/internal/adapters/logger"
)

func TestPrettyHandler_Attrs(t *testing.T) {
	tests := []struct {
		name       string
		build      func(slog.Handler) slog.Handler
		args       []any
		goldenName string
	}{
		{
			name:       "record attributes",
			build:      func(h slog.Handler) slog.Handler { return h },
			args:       []any{"host", "box", "tier", "fswatch"},
			goldenName: "handler_record_attrs",
		},
		{
			name: "handler attributes come first",
			build: func(h slog.Handler) slog.Handler {
				return h.WithAttrs([]slog.Attr{slog.String("source", "remote")})
			},
			args:       []any{"host", "box"},
			goldenName: "handler_with_attrs",
		},
		{
			name: "nested groups",
			build: func(h slog.Handler) slog.Handler {
				return h.WithGroup("ssh").WithGroup("run")
			},
			args:       []any{"timeout", "10s"},
			goldenName: "handler_group_nested",
		},
		{
			name:       "group attribute",
			build:      func(h slog.Handler) slog.Handler { return h },
			args:       []any{slog.Group("g", slog.String("k", "v"))},
			goldenName: "handler_attr_group",
		},
		{
			name:       "empty group name is ignored",
			build:      func(h slog.Handler) slog.Handler { return h.WithGroup("") },
			args:       []any{"key", "val"},
			goldenName: "handler_group_empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			h := tt.build(logger.NewPrettyHandler(buf, nil))
			slog.New(h).Info("msg", tt.args...)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	tests := []struct {
		name         string
		handlerLevel slog.Level
		recordLevel  slog.Level
		wantEnabled  bool
	}{
		{"debug below info", slog.LevelInfo, slog.LevelDebug, false},
		{"info at info", slog.LevelInfo, slog.LevelInfo, true},
		{"warn above info", slog.LevelInfo, slog.LevelWarn, true},
		{"debug at debug", slog.LevelDebug, slog.LevelDebug, true},
		{"warn at error", slog.LevelError, slog.LevelWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := logger.NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: tt.handlerLevel})
			assert.Equal(t, tt.wantEnabled, h.Enabled(t.Context(), tt.recordLevel))
		})
	}
}

func TestPrettyHandler_LevelVarIsLive(t *testing.T) {
	lv := &slog.LevelVar{}
	lv.Set(slog.LevelInfo)
	h := logger.NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: lv})

	assert.False(t, h.Enabled(t.Context(), slog.LevelDebug))
	lv.Set(slog.LevelDebug)
	assert.True(t, h.Enabled(t.Context(), slog.LevelDebug))
}
