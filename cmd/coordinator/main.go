package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mikekulinski/coordination/pkg/config"
	"github.com/mikekulinski/coordination/pkg/ensemble"
	"github.com/mikekulinski/coordination/pkg/logging"
	"github.com/mikekulinski/coordination/pkg/persistence"
	"github.com/mikekulinski/coordination/pkg/server"
	"github.com/mikekulinski/coordination/pkg/zookeeper"
	"github.com/sirupsen/logrus"
)

const membersPath = "/cluster/members"

var (
	configFile  string
	writeConfig bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "path to a TOML config file, defaults are used when empty")
	flag.BoolVar(&writeConfig, "gencfg", false, "print the default config and exit")
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		logging.NewLogger("coordinator").WithError(err).Fatal("coordinator failed")
	}
}

// run does all the work so the deferred cleanups still happen when something fails.
func run() error {
	if writeConfig {
		if err := config.WriteDefault(os.Stdout); err != nil {
			return fmt.Errorf("error writing the default config: %w", err)
		}
		return nil
	}

	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.LoadFile(configFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("bad log level: %w", err)
	}

	newSession, cleanup, err := backend(cfg)
	if err != nil {
		return fmt.Errorf("error setting up the backend: %w", err)
	}
	defer cleanup()

	if err := membership(newSession); err != nil {
		return fmt.Errorf("membership walkthrough failed: %w", err)
	}
	return nil
}

// backend returns a way to open sessions on the configured backend.
func backend(cfg *config.Config) (func() (zookeeper.Session, error), func(), error) {
	if cfg.Backend == config.BackendEnsemble {
		newSession := func() (zookeeper.Session, error) {
			return ensemble.Connect(cfg.Ensemble.Hosts, cfg.SessionTimeout())
		}
		return newSession, func() {}, nil
	}

	opts := []server.Option{
		server.WithAutoReset(cfg.Local.AutoReset),
		server.WithDisruptDelay(cfg.DisruptDelay()),
	}
	if cfg.Journal.Dir != "" {
		journal, err := persistence.NewLogManager(cfg.Journal.Dir)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, server.WithJournal(journal))
	}
	s := server.NewServer(opts...)
	newSession := func() (zookeeper.Session, error) {
		return s.CreateSession(), nil
	}
	return newSession, s.CompleteReset, nil
}

// membership has a few members join a group and one of them leave, while an observer
// follows the group through a child watcher.
func membership(newSession func() (zookeeper.Session, error)) error {
	log := logging.NewLogger("membership")

	observer, err := newSession()
	if err != nil {
		return err
	}
	defer observer.Stop()
	if err := zookeeper.RecursiveMkdir(observer, membersPath, zookeeper.Persistent); err != nil {
		return err
	}

	changed := make(chan []string, 16)
	var watch zookeeper.Watcher
	watch = func() {
		members, err := observer.GetSubdirs(membersPath, watch)
		if err != nil {
			log.WithError(err).Warn("failed to read the group")
			return
		}
		changed <- members
	}
	watch()
	log.WithField("members", <-changed).Info("watching the group")

	var members []zookeeper.Session
	for i := 0; i < 3; i++ {
		m, err := newSession()
		if err != nil {
			return err
		}
		defer m.Stop()
		name, err := m.Mkdir(membersPath+"/member_", []byte(fmt.Sprint(i)), zookeeper.EphemeralSequential)
		if err != nil {
			return err
		}
		log.WithField("path", name).Info("member joined")
		members = append(members, m)
		if err := awaitChange(changed, log.WithField("event", "join")); err != nil {
			return err
		}
	}

	members[0].Stop()
	return awaitChange(changed, log.WithField("event", "leave"))
}

func awaitChange(changed <-chan []string, log *logrus.Entry) error {
	select {
	case members := <-changed:
		log.WithField("members", members).Info("group changed")
		return nil
	case <-time.After(10 * time.Second):
		return errors.New("timed out waiting for the group to change")
	}
}
