package logx

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hypeframe/monarch/pkg/errx"
)

// JSONFormatter formats logs as JSON
type JSONFormatter struct {
	config *Config
	// keys used for the standard fields
	levelKey, messageKey, timeKey string
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(config *Config) *JSONFormatter {
	return &JSONFormatter{config: config, levelKey: "level", messageKey: "message", timeKey: "timestamp"}
}

// NewCloudWatchFormatter creates a JSON formatter using the CloudWatch Logs Insights field names
func NewCloudWatchFormatter(config *Config) *JSONFormatter {
	return &JSONFormatter{config: config, levelKey: "level", messageKey: "msg", timeKey: "time"}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+6)

	for k, v := range entry.Fields {
		data[k] = v
	}

	data[f.levelKey] = entry.Level.String()
	data[f.messageKey] = entry.Message

	if f.config.EnableTimestamp {
		switch f.config.TimeFormat {
		case "unix":
			data[f.timeKey] = entry.Timestamp.Unix()
		case "unixmilli":
			data[f.timeKey] = entry.Timestamp.UnixMilli()
		default:
			data[f.timeKey] = entry.Timestamp.Format(time.RFC3339Nano)
		}
	}

	if f.config.EnableCaller && entry.Caller != "" {
		data["caller"] = entry.Caller
	}

	if entry.Error != nil {
		data["error"] = entry.Error.Error()
		var xe *errx.Error
		if errors.As(entry.Error, &xe) {
			data["error_code"] = xe.Code
			data["error_type"] = string(xe.Type)
		}
	}

	if entry.Data != nil {
		data["data"] = entry.Data
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(bytes, '\n'), nil
}
