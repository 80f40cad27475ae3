// Package logging provides the bus's process-wide structured logger,
// modeled directly on the teacher's code/logging/logger.go: a JSON
// config file for level/batch tuning, a best-effort UDP sink for live
// tailing, and an optional audit_log write queue registered separately
// from construction.
package logging

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Voltaic314/eventbus/code/audit"
	"github.com/Voltaic314/eventbus/code/types/logging"
)

// Logger is the bus's structured logger. The zero value is not usable;
// build one with InitLogger, or use GlobalLogger's nil-safe default.
type Logger struct {
	logLevel   string
	udpConn    *net.UDPConn
	logWQ      audit.WriteQueueInterface
	batchSize  int
	batchDelay time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
}

// GlobalLogger is the process-wide logger instance the bus and its
// workers log through. It is a convenience, not a requirement
// of the bus design: nothing here prevents constructing and threading a
// private *Logger instead.
var GlobalLogger *Logger

func init() {
	// A bus may be constructed before any embedder calls InitLogger; a
	// warning-level, UDP-less, audit-less default keeps every Log call
	// safe until the embedder opts into full configuration.
	ctx, cancel := context.WithCancel(context.Background())
	GlobalLogger = &Logger{logLevel: "warning", batchSize: 50, batchDelay: 5 * time.Second, ctx: ctx, cancel: cancel}
}

// InitLogger loads level/batch settings from the JSON file at configPath
// (falling back to documented defaults when the file is absent or
// malformed, exactly as the teacher does) and attempts to dial a UDP
// sink for live log tailing, silently disabled if the dial fails.
func InitLogger(configPath string) {
	ctx, cancel := context.WithCancel(context.Background())
	logger := &Logger{ctx: ctx, cancel: cancel}
	logger.loadSettings(configPath)
	logger.connectToUDP()
	GlobalLogger = logger
}

// RegisterDB attaches db's audit_log write queue to the logger so
// subsequent Log calls are also persisted, matching the teacher's
// RegisterDB/InitWriteQueue two-step: logging and persistence are
// independent opt-ins.
func (l *Logger) RegisterDB(db *audit.DB) error {
	if err := db.CreateTable("audit_log", audit.LogTableSchema); err != nil {
		return err
	}
	l.logWQ = db.GetWriteQueue("audit_log")
	return nil
}

func (l *Logger) loadSettings(configPath string) {
	l.logLevel = "warning"
	l.batchSize = 50
	l.batchDelay = 5 * time.Second

	file, err := os.ReadFile(configPath)
	if err != nil {
		return
	}
	var config map[string]any
	json.Unmarshal(file, &config)
	if val, ok := config["log_level"].(string); ok {
		l.logLevel = val
	}
	if val, ok := config["log_batch_size"].(float64); ok {
		l.batchSize = int(val)
	}
	if val, ok := config["log_batch_sleep_time"].(float64); ok {
		l.batchDelay = time.Duration(int(val)) * time.Second
	}
}

func (l *Logger) connectToUDP() {
	udpAddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:9999")
	if err != nil {
		return
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return
	}
	l.udpConn = conn
}

// Log builds a logging.LogEntry and, below the configured level filter,
// does nothing further. At or above it, the entry is shipped to the UDP
// sink (if connected) and, if RegisterDB was called, enqueued as a
// batched audit_log insert. This is the granularity the bus and its
// workers log at — lifecycle events, not per-task
// execution, matching the teacher's own restraint around high-frequency
// events.
func (l *Logger) Log(level, entity, entityID, message string, details map[string]any, action string, queue string) {
	if details == nil {
		details = make(map[string]any)
	}

	e := logging.LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Entity:    entity,
		EntityID:  entityID,
		Message:   message,
		Details:   details,
		Action:    action,
		Queue:     queue,
	}

	if !l.shouldLog(e.Level) {
		return
	}

	if l.udpConn != nil {
		go func() {
			payload, err := json.Marshal(e)
			if err != nil {
				return
			}
			l.udpConn.Write(payload)
		}()
	}

	if l.logWQ != nil {
		detailsJSON, _ := json.Marshal(e.Details)
		query := `INSERT INTO audit_log (id, timestamp, level, entity, entity_id, details, message, action, queue) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		l.logWQ.Add(audit.WriteOp{
			Query:  query,
			Params: []any{uuid.NewString(), e.Timestamp, e.Level, e.Entity, e.EntityID, string(detailsJSON), e.Message, e.Action, e.Queue},
		})
	}
}

func (l *Logger) shouldLog(level string) bool {
	levels := map[string]int{"error": 0, "warning": 1, "info": 2, "debug": 3, "trace": 4}
	return levels[level] <= levels[l.logLevel]
}

// Stop closes the UDP connection and cancels the logger's context. It
// does not flush the audit DB's write queue — that is the DB's own
// Close, called independently by whichever owner constructed it.
func (l *Logger) Stop() {
	if l.udpConn != nil {
		l.udpConn.Close()
	}
	l.cancel()
}
