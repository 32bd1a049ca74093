package main

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/csnsports/csn-admin/pkg/audit"
	"github.com/csnsports/csn-admin/pkg/config"
	"github.com/csnsports/csn-admin/pkg/observability"
)

// openAuditDB opens the PostgreSQL audit database
var openAuditDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

// auditSinks is the audit destination chosen by configuration
type auditSinks struct {
	sink   audit.Sink
	reader audit.Reader
	checks map[string]observability.CheckFunc
	// db is owned here because DBSink does not close it
	db *sql.DB
}

// closeDB releases the audit database, if one was opened
func (a *auditSinks) closeDB() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func buildAuditSinks(cfg config.AuditConfig, logger logrus.FieldLogger) (*auditSinks, error) {
	out := &auditSinks{checks: map[string]observability.CheckFunc{}}

	var (
		fileSink *audit.FileSink
		dbSink   *audit.DBSink
		err      error
	)

	// the database is opened first so that a failure there leaves nothing
	// to clean up
	if cfg.Sink == config.AuditSinkDB || (cfg.Sink == config.AuditSinkMulti && cfg.DatabaseURL != "") {
		db, err := openAuditDB(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit database: %w", err)
		}
		dbSink, err = audit.NewDBSink(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		out.db = db
		out.checks["audit_database"] = dbSink.Ping
		logger.Info("Audit records written to PostgreSQL")
	}

	if cfg.Sink == config.AuditSinkFile || (cfg.Sink == config.AuditSinkMulti && cfg.FileDir != "") {
		fileCfg := audit.DefaultFileSinkConfig()
		fileCfg.Dir = cfg.FileDir
		if cfg.FileMaxSize > 0 {
			fileCfg.MaxSize = cfg.FileMaxSize
		}
		if cfg.FileMaxFiles > 0 {
			fileCfg.MaxFiles = cfg.FileMaxFiles
		}
		fileSink, err = audit.NewFileSink(fileCfg)
		if err != nil {
			out.closeDB()
			return nil, fmt.Errorf("failed to open audit file sink: %w", err)
		}
		logger.WithField("path", fileSink.Path()).Info("Audit records written to file")
	}

	switch cfg.Sink {
	case config.AuditSinkFile:
		out.sink, out.reader = fileSink, fileSink
	case config.AuditSinkDB:
		out.sink, out.reader = dbSink, dbSink
	case config.AuditSinkMulti:
		var sinks []audit.Sink
		// database first so queries are served from it when both are configured
		if dbSink != nil {
			sinks = append(sinks, dbSink)
		}
		if fileSink != nil {
			sinks = append(sinks, fileSink)
		}
		sinks = append(sinks, audit.NewLogrusSink(logger))
		multi := audit.NewMultiSink(sinks...)
		out.sink, out.reader = multi, multi
	default:
		out.sink = audit.NewLogrusSink(logger)
	}

	return out, nil
}
