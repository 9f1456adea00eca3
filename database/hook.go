/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var bunSqlSilentMode atomic.Bool

// EnableBunSqlSilent mutes the query hooks, e.g. while migrations run.
func EnableBunSqlSilent(b bool) {
	bunSqlSilentMode.Store(b)
}

// SlowQueryHook reports successful queries that take longer than Threshold.
// Each report goes to Logger as a warning and, when Writer is set, as a
// colored line on Writer.
type SlowQueryHook struct {
	Threshold time.Duration
	Logger    Logger
	Writer    io.Writer
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

// NewSlowQueryHook returns a hook that logs through logger and echoes the
// query to stderr when BUNDEBUG_SLOW is set.
func NewSlowQueryHook(threshold time.Duration, logger Logger) *SlowQueryHook {
	h := &SlowQueryHook{Threshold: threshold, Logger: logger}
	if _, ok := os.LookupEnv("BUNDEBUG_SLOW"); ok {
		h.Writer = os.Stderr
	}
	return h
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if bunSqlSilentMode.Load() || event.Err != nil || h.Threshold <= 0 {
		return
	}
	duration := time.Since(event.StartTime)
	if duration <= h.Threshold {
		return
	}
	if h.Logger != nil {
		h.Logger.Warn("Database slow query detected",
			"duration", duration,
			"slow_threshold", h.Threshold,
			"query", event.Query,
		)
	}
	if h.Writer != nil {
		_, _ = fmt.Fprintln(h.Writer,
			time.Now().Format("2006-01-02 15:04:05.000"),
			color.New(color.FgYellow, color.Bold).Sprint("[BUN_SLOW]"),
			fmt.Sprintf("%12s", duration.Round(time.Microsecond)),
			operationColor(event.Operation()).Sprint(event.Query),
		)
	}
}

func operationColor(operation string) *color.Color {
	switch operation {
	case "SELECT":
		return color.New(color.BgGreen, color.FgHiWhite)
	case "INSERT":
		return color.New(color.BgBlue, color.FgHiWhite)
	case "UPDATE":
		return color.New(color.BgYellow, color.FgHiWhite)
	case "DELETE":
		return color.New(color.BgMagenta, color.FgHiWhite)
	default:
		return color.New(color.BgRed, color.FgHiWhite)
	}
}
