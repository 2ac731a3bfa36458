package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-completion/internal/app"
	"github.com/yungbote/neurobridge-completion/internal/domain/keys"
	"github.com/yungbote/neurobridge-completion/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-completion/internal/platform/switches"
)

type switchSetter interface {
	Set(ctx context.Context, name string, active bool) error
}

func main() {
	var (
		switchState string
		enroll      bool
		unenroll    bool
		report      bool
		userRaw     string
		courseRaw   string
		mode        string
	)
	flag.StringVar(&switchState, "tracking", "", "set the completion tracking switch: on|off (db and redis backends)")
	flag.BoolVar(&enroll, "enroll", false, "activate -user's enrollment in -course")
	flag.BoolVar(&unenroll, "unenroll", false, "deactivate -user's enrollment in -course")
	flag.BoolVar(&report, "report", false, "print -user's completions in -course")
	flag.StringVar(&userRaw, "user", "", "user id (uuid)")
	flag.StringVar(&courseRaw, "course", "", "course key (course-v1:org+course+run)")
	flag.StringVar(&mode, "mode", "", "enrollment mode (default audit)")
	flag.Parse()

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()
	dbc := dbctx.Context{Ctx: ctx}

	if switchState != "" {
		setter, ok := application.Clients.Switches.(switchSetter)
		if !ok {
			fail(application, "switch backend %q is read-only", application.Cfg.SwitchBackend)
		}
		active, ok := switches.ParseState(switchState)
		if !ok {
			fail(application, "invalid -tracking %q: want on or off", switchState)
		}
		if err := setter.Set(ctx, application.Services.Gate.Name(), active); err != nil {
			fail(application, "set switch: %v", err)
		}
		fmt.Printf("%s=%t\n", application.Services.Gate.Name(), application.Services.Gate.IsEnabled(ctx))
	}

	if !enroll && !unenroll && !report {
		return
	}
	userID, err := uuid.Parse(strings.TrimSpace(userRaw))
	if err != nil {
		fail(application, "invalid -user: %v", err)
	}
	courseKey, err := keys.ParseCourseKey(courseRaw)
	if err != nil {
		fail(application, "invalid -course: %v", err)
	}

	switch {
	case enroll:
		row, err := application.Repos.CourseEnrollment.Enroll(dbc, userID, courseKey, mode)
		if err != nil {
			fail(application, "enroll: %v", err)
		}
		fmt.Printf("enrolled user=%s course=%s mode=%s\n", row.UserID, row.CourseID, row.Mode)
	case unenroll:
		if err := application.Repos.CourseEnrollment.Deactivate(dbc, userID, courseKey); err != nil {
			fail(application, "unenroll: %v", err)
		}
		fmt.Printf("unenrolled user=%s course=%s\n", userID, courseKey)
	}

	if report {
		byBlock, err := application.Services.Completion.CourseCompletions(ctx, userID, courseKey)
		if err != nil {
			fail(application, "load completions: %v", err)
		}
		blocks := make([]string, 0, len(byBlock))
		values := make(map[string]float64, len(byBlock))
		for k, v := range byBlock {
			blocks = append(blocks, k.String())
			values[k.String()] = v
		}
		sort.Strings(blocks)
		for _, b := range blocks {
			fmt.Printf("%s\t%.4f\n", b, values[b])
		}
		fmt.Printf("done; blocks=%d\n", len(blocks))
	}
}

func fail(application *app.App, format string, args ...any) {
	fmt.Printf(format+"\n", args...)
	application.Close()
	os.Exit(1)
}
