package internal

import (
	"fmt"
	"os"
	"os/user"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/earthboundkid/versioninfo/v2"
	"go.uber.org/zap"
)

var sensitiveRegex = regexp.MustCompile(`(?i)(PASSWORD|API_KEY|ACCESS_KEY|SECRET|TOKEN)`)

func ShowVersion(logger *zap.Logger) {
	logger.Info("version", zap.String("version", versioninfo.Short()))
}

func EnvironmentVars(logger *zap.Logger) {
	environ := os.Environ()
	sort.Slice(environ, func(i, j int) bool {
		keyI := strings.SplitN(environ[i], "=", 2)[0]
		keyJ := strings.SplitN(environ[j], "=", 2)[0]
		return keyI < keyJ
	})

	fields := make([]zap.Field, 0, len(environ))
	for _, entry := range environ {
		key, value := maskEnv(entry)
		fields = append(fields, zap.String(key, value))
	}
	logger.Debug("environment variables", fields...)
}

func maskEnv(entry string) (string, string) {
	kv := strings.SplitN(entry, "=", 2)
	if len(kv) < 2 {
		return kv[0], ""
	}
	if sensitiveRegex.MatchString(kv[0]) {
		return kv[0], "********"
	}
	return kv[0], kv[1]
}

func UserInfo(logger *zap.Logger) {
	fields := []zap.Field{zap.Int("pid", os.Getpid())}

	currentUser, err := user.Current()
	if err != nil {
		logger.Warn("error getting current user", zap.Error(err))
	} else {
		fields = append(fields, zap.String("user", fmt.Sprintf("uid=%s(%s) gid=%s", currentUser.Uid, currentUser.Username, currentUser.Gid)))
	}

	groups, err := os.Getgroups()
	if err != nil {
		logger.Warn("error getting groups", zap.Error(err))
	} else {
		groupNames := make([]string, 0, len(groups))
		for _, gid := range groups {
			group, err := user.LookupGroupId(strconv.Itoa(gid))
			if err != nil {
				groupNames = append(groupNames, strconv.Itoa(gid)) // Append ID if name lookup fails
			} else {
				groupNames = append(groupNames, fmt.Sprintf("%s(%s)", group.Name, group.Gid))
			}
		}
		fields = append(fields, zap.Strings("groups", groupNames))
	}

	logger.Info("process", fields...)
}
