package logging

import (
	"strings"
)

type level int

var (
	levelDebug    = level(10)
	levelInfo     = level(20)
	levelWarn     = level(30)
	levelError    = level(40)
	levelCritical = level(50)
	levelNever    = level(60)
)

func levelStringToLevel(str string) (level, bool) {
	switch strings.ToUpper(strings.TrimSpace(str)) {
	case "NEVER":
		return levelNever, true
	case "DEBUG":
		return levelDebug, true
	case "INFO", "":
		return levelInfo, true
	case "WARN":
		return levelWarn, true
	case "ERROR":
		return levelError, true
	case "CRITICAL":
		return levelCritical, true
	default:
		return levelWarn, false
	}
}

func levelToString(lvl level) string {
	switch lvl {
	case levelDebug:
		return "DEBUG"
	case levelInfo:
		return "INFO"
	case levelWarn:
		return "WARN"
	case levelError:
		return "ERROR"
	case levelCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}
