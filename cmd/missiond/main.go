package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/opsdeck/missiond/internal/client"
	"github.com/opsdeck/missiond/internal/daemon"
	"github.com/opsdeck/missiond/internal/journal"
	"github.com/opsdeck/missiond/internal/mission"
	"github.com/opsdeck/missiond/internal/missionctx"
)

var (
	app    = kingpin.New("missiond", "Mission lifecycle and context management daemon")
	server = app.Flag("server", "Daemon base URL").Default("http://localhost:8900").String()

	startCmd = app.Command("start", "Start the missiond daemon")

	createCmd      = app.Command("create", "Create a new mission")
	createName     = createCmd.Arg("name", "Mission name").Required().String()
	createDesc     = createCmd.Flag("description", "Mission description").Required().String()
	createType     = createCmd.Flag("type", "Mission type").Required().String()
	createPriority = createCmd.Flag("priority", "Mission priority").Default("MEDIUM").String()

	listCmd      = app.Command("list", "List missions")
	listArchived = listCmd.Flag("archived", "List archived missions").Bool()

	showCmd = app.Command("show", "Show mission details")
	showID  = showCmd.Arg("id", "Mission ID").Required().String()

	statusCmd    = app.Command("status", "Transition a mission to a new status")
	statusID     = statusCmd.Arg("id", "Mission ID").Required().String()
	statusTarget = statusCmd.Arg("status", "Target status").Required().String()
	statusStage  = statusCmd.Flag("stage", "Lifecycle stage").String()
	statusActor  = statusCmd.Flag("actor", "Acting operator").String()

	loadoutCmd = app.Command("loadout", "Assign a tool loadout to a mission")
	loadoutMID = loadoutCmd.Arg("id", "Mission ID").Required().String()
	loadoutID  = loadoutCmd.Arg("loadout", "Loadout ID").Required().String()

	completeCmd   = app.Command("complete", "Complete and archive a mission")
	completeID    = completeCmd.Arg("id", "Mission ID").Required().String()
	completeActor = completeCmd.Flag("actor", "Acting operator").String()

	briefingCmd = app.Command("briefing", "Print the mission briefing")
	briefingID  = briefingCmd.Arg("id", "Mission ID").Required().String()

	planCmd   = app.Command("plan", "Print the mission execution plan")
	planID    = planCmd.Arg("id", "Mission ID").Required().String()
	planPhase = planCmd.Flag("phase", "Limit to one phase").String()

	reportCmd = app.Command("report", "Print a mission status report")
	reportID  = reportCmd.Arg("id", "Mission ID").Required().String()

	debriefCmd = app.Command("debrief", "Print the final debriefing of an archived mission")
	debriefID  = debriefCmd.Arg("id", "Mission ID").Required().String()

	rebriefCmd  = app.Command("rebrief", "Merge context and print a rebriefing")
	rebriefID   = rebriefCmd.Arg("id", "Mission ID").Required().String()
	rebriefTask = rebriefCmd.Flag("task", "Update the current task").String()

	logCmd     = app.Command("log", "Append an activity log entry to a mission")
	logID      = logCmd.Arg("id", "Mission ID").Required().String()
	logMessage = logCmd.Arg("message", "Log message").Required().String()
	logLevel   = logCmd.Flag("level", "Entry level").Default("INFO").String()

	loadoutsCmd        = app.Command("loadouts", "List available tool loadouts")
	loadoutsCapability = loadoutsCmd.Flag("capability", "Filter by capability").String()
	loadoutsReload     = loadoutsCmd.Flag("reload", "Reload definitions from storage first").Bool()

	logsCmd     = app.Command("logs", "Print a journal channel")
	logsChannel = logsCmd.Arg("channel", "Channel: activity, tool_usage or context_change").Required().String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == startCmd.FullCommand() {
		runDaemon()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runClient(ctx, command, client.New(*server)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDaemon() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := daemon.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
		os.Exit(1)
	}

	if err := d.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error running daemon: %v\n", err)
		os.Exit(1)
	}
}

func runClient(ctx context.Context, command string, c *client.Client) error {
	switch command {
	case createCmd.FullCommand():
		m, err := c.CreateMission(ctx, &mission.CreateSpec{
			Name:        *createName,
			Description: *createDesc,
			Type:        mission.Type(*createType),
			Priority:    mission.Priority(*createPriority),
		})
		if err != nil {
			return err
		}
		printMission(m)
		return nil

	case listCmd.FullCommand():
		missions, err := c.ListMissions(ctx, *listArchived)
		if err != nil {
			return err
		}
		printMissionList(missions)
		return nil

	case showCmd.FullCommand():
		m, err := c.GetMission(ctx, *showID)
		if err != nil {
			return err
		}
		printMission(m)
		return nil

	case statusCmd.FullCommand():
		m, err := c.UpdateStatus(ctx, *statusID,
			mission.Status(*statusTarget), mission.Stage(*statusStage), nil, *statusActor)
		if err != nil {
			return err
		}
		printMission(m)
		return nil

	case loadoutCmd.FullCommand():
		if err := c.AssignLoadout(ctx, *loadoutMID, *loadoutID); err != nil {
			return err
		}
		fmt.Printf("Loadout %s assigned to %s\n", *loadoutID, *loadoutMID)
		return nil

	case completeCmd.FullCommand():
		m, err := c.CompleteMission(ctx, *completeID, nil, *completeActor)
		if err != nil {
			return err
		}
		printMission(m)
		return nil

	case briefingCmd.FullCommand():
		return printTextOp(c.Briefing(ctx, *briefingID))

	case planCmd.FullCommand():
		return printTextOp(c.ExecutionPlan(ctx, *planID, *planPhase))

	case reportCmd.FullCommand():
		return printTextOp(c.StatusReport(ctx, *reportID))

	case debriefCmd.FullCommand():
		return printTextOp(c.Debriefing(ctx, *debriefID))

	case rebriefCmd.FullCommand():
		patch := &missionctx.Patch{CurrentTask: *rebriefTask}
		return printTextOp(c.Rebriefing(ctx, *rebriefID, patch))

	case logCmd.FullCommand():
		return c.AddLogEntry(ctx, *logID, journal.Level(*logLevel), *logMessage)

	case loadoutsCmd.FullCommand():
		if *loadoutsReload {
			if err := c.ReloadLoadouts(ctx); err != nil {
				return err
			}
		}
		loadouts, err := c.ListLoadouts(ctx, *loadoutsCapability)
		if err != nil {
			return err
		}
		printLoadouts(loadouts)
		return nil

	case logsCmd.FullCommand():
		entries, err := c.ReadLog(ctx, journal.Channel(*logsChannel))
		if err != nil {
			return err
		}
		printJournal(entries)
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func printTextOp(text string, err error) error {
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}
