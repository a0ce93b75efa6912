package export

import (
	"encoding/json"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/verte-zerg/shottrack/internal/model"
)

// BackupVersion is written into every backup payload.
const BackupVersion = "1.0.0"

// ErrInvalidBackup marks payloads that cannot be restored.
var ErrInvalidBackup = errors.New("invalid backup")

// Backup is the portable snapshot of all shots and parameter definitions.
type Backup struct {
	Shots            []model.Shot            `json:"shots"`
	CustomParameters []model.CustomParameter `json:"customParameters"`
	ExportDate       time.Time               `json:"exportDate"`
	Version          string                  `json:"version"`
}

type backupPayload struct {
	Shots            *[]model.Shot            `json:"shots"`
	CustomParameters *[]model.CustomParameter `json:"customParameters"`
	// Metadata is informational; any JSON type is accepted.
	ExportDate json.RawMessage `json:"exportDate"`
	Version    json.RawMessage `json:"version"`
}

// NewBackup snapshots the collections at the given time.
func NewBackup(shots []model.Shot, params []model.CustomParameter, now time.Time) Backup {
	if shots == nil {
		shots = []model.Shot{}
	}
	if params == nil {
		params = []model.CustomParameter{}
	}
	return Backup{
		Shots:            shots,
		CustomParameters: params,
		ExportDate:       now.UTC(),
		Version:          BackupVersion,
	}
}

// EncodeBackup renders the backup as indented JSON.
func EncodeBackup(b Backup) ([]byte, error) {
	if b.Shots == nil {
		b.Shots = []model.Shot{}
	}
	if b.CustomParameters == nil {
		b.CustomParameters = []model.CustomParameter{}
	}
	if b.Version == "" {
		b.Version = BackupVersion
	}
	data, err := sonic.ConfigStd.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode backup")
	}
	return data, nil
}

// DecodeBackup parses a backup. Both lists must be present JSON arrays and
// every element must decode; otherwise ErrInvalidBackup is returned.
func DecodeBackup(data []byte) (Backup, error) {
	var payload backupPayload
	if err := sonic.ConfigStd.Unmarshal(data, &payload); err != nil {
		return Backup{}, errors.Mark(errors.Wrap(err, "decode backup"), ErrInvalidBackup)
	}
	if payload.Shots == nil {
		return Backup{}, errors.Wrap(ErrInvalidBackup, "shots list missing")
	}
	if payload.CustomParameters == nil {
		return Backup{}, errors.Wrap(ErrInvalidBackup, "customParameters list missing")
	}
	out := Backup{
		Shots:            *payload.Shots,
		CustomParameters: *payload.CustomParameters,
		Version:          metaString(payload.Version),
		ExportDate:       metaTime(payload.ExportDate),
	}
	return out, nil
}

func metaString(raw json.RawMessage) string {
	var s string
	if err := sonic.ConfigStd.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// metaTime reads an RFC 3339 string or epoch milliseconds. Anything else
// yields the zero time.
func metaTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}
	}
	if s := metaString(raw); s != "" {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts
		}
		return time.Time{}
	}
	var ms int64
	if err := sonic.ConfigStd.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

// BackupFilename returns the download name for a backup.
func BackupFilename(now time.Time) string {
	return "basketball-data-" + now.Format("2006-01-02") + ".json"
}
