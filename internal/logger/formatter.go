package logger

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// lokiPush is the body of a Loki /loki/api/v1/push request.
type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

func buildLogEntry(job string, level slog.Level, message string, attrs []slog.Attr, now time.Time) lokiPush {
	lvl := strings.ToLower(level.String())
	return lokiPush{
		Streams: []lokiStream{
			{
				Stream: map[string]string{
					"level": lvl,
					"job":   job,
				},
				Values: [][2]string{
					{strconv.FormatInt(now.UnixNano(), 10), buildLogLine(lvl, message, attrs, now)},
				},
			},
		},
	}
}

// buildLogLine renders one record as a flat JSON object.
func buildLogLine(level, message string, attrs []slog.Attr, now time.Time) string {
	line := map[string]any{
		"level":   level,
		"message": message,
		"time":    now.Format(time.RFC3339),
	}
	for _, attr := range attrs {
		line[attr.Key] = attr.Value.Resolve().Any()
	}

	b, err := json.Marshal(line)
	if err != nil {
		return `{"level":"` + level + `","message":` + strconv.Quote(message) + `}`
	}
	return string(b)
}
