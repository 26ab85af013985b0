package cmd

import (
	"context"
	"fmt"

	"code.cloudfoundry.org/clock"

	"hostwatch/internal/config"
	"hostwatch/monitor"
	"hostwatch/monitor/alert"
	"hostwatch/monitor/collector"
	"hostwatch/monitor/notifier"
	"hostwatch/monitor/store"
	"hostwatch/monitor/transfer"
	"hostwatch/pkg/log"
)

func run(ctx context.Context, conf *config.Config) error {
	logger := log.GetLogger("hostwatch")

	n, err := notifier.New(notifierOptions(conf))
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, store.Options{
		Driver:        conf.Store.Driver,
		Dir:           conf.Store.Dir,
		RedisAddr:     conf.Store.RedisAddr,
		RedisPassword: conf.Store.RedisPassword,
		RedisDB:       conf.Store.RedisDB,
		KeyPrefix:     conf.Store.RedisPrefix,
		SQLitePath:    conf.Store.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("open %s store: %w", conf.Store.Driver, err)
	}
	defer st.Close()

	source := collector.NewHostSource(config.Seconds(conf.Transfer.Window))
	source.Prime(ctx)

	clk := clock.NewClock()
	acc := transfer.NewAccumulator(ctx, st, transfer.Config{
		Rule:               rule(conf.Thresholds.Transfer*transfer.BytesPerTB, conf),
		SampleInterval:     config.Seconds(conf.Transfer.CheckInterval),
		CheckpointInterval: config.Seconds(conf.Transfer.SaveInterval),
	}, clk.Now(), log.GetLogger("transfer"))

	m := monitor.NewMonitor(source, n, acc, monitor.Options{
		CPU:      rule(conf.Thresholds.CPU, conf),
		RAM:      rule(conf.Thresholds.RAM, conf),
		Disk:     rule(conf.Thresholds.Disk, conf),
		DiskPath: conf.DiskPath,
		Tick:     config.Seconds(conf.Tick),
	}, clk)

	logger.Infof("hostwatch %s: notifier %s, store %s, thresholds cpu %.1f%% ram %.1f%% disk %.1f%% transfer %.2f TB",
		Version, n.Name(), conf.Store.Driver,
		conf.Thresholds.CPU, conf.Thresholds.RAM, conf.Thresholds.Disk, conf.Thresholds.Transfer)

	return monitor.NewRunner(m, conf.MetricsListen).Run(ctx)
}

func rule(threshold float64, conf *config.Config) alert.Rule {
	return alert.Rule{
		Threshold: threshold,
		Delay:     config.Seconds(conf.Delay),
		Cooldown:  config.Seconds(conf.Cooldown),
	}
}

func notifierOptions(conf *config.Config) notifier.Options {
	return notifier.Options{
		Kind:           conf.Notifier,
		TelegramAPIURL: conf.Telegram.APIURL,
		TelegramToken:  conf.Telegram.Token,
		TelegramChatID: conf.Telegram.ChatID,
		SMTPServer:     conf.Email.Server,
		SMTPPort:       conf.Email.Port,
		SMTPUsername:   conf.Email.Username,
		SMTPPassword:   conf.Email.Password,
		SMTPFrom:       conf.Email.From,
		SMTPTo:         conf.Email.To,
		SMTPTLS:        conf.Email.TLS,
	}
}
