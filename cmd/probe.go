package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jdelgadoalfonso/amqprs/config"
	"github.com/jdelgadoalfonso/amqprs/frame"
	"github.com/jdelgadoalfonso/amqprs/transport"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "connect to a broker and trace incoming frames",
	Long: "probe dials a broker, sends the AMQP protocol header, splits the connection,\n" +
		"and logs every frame the broker sends until the peer closes or --max-frames\n" +
		"is reached. The write half is driven only for the orderly shutdown.",
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().Int("max-frames", 0, "half-close after this many frames (0 = read until close)")
	_ = viper.BindPFlag("max_frames", probeCmd.Flags().Lookup("max-frames"))
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	cfg.Addr = viper.GetString("addr")
	cfg.LogLevel = viper.GetString("log_level")
	cfg.MaxFrames = viper.GetInt("max_frames")
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	conn, err := transport.Open(cfg.Addr, logger)
	if err != nil {
		return err
	}
	if _, err := conn.Write(frame.DefaultProtocolHeader()); err != nil {
		return err
	}
	reader, writer := conn.Split()
	defer reader.Close()

	// on interrupt, half-close from the signal goroutine; the read loop below
	// then drains to stream end
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		if _, ok := <-sigs; ok {
			logger.Info("interrupt, half-closing")
			_ = writer.Close()
		}
	}()

	count := 0
	halfClosed := false
	for {
		channel, f, err := reader.ReadFrame()
		if err != nil {
			if errors.Is(err, transport.ErrClosed) {
				logger.Info("peer closed cleanly", zap.Int("frames", count))
				return nil
			}
			return err
		}
		count++
		logger.Info("frame",
			zap.Uint16("channel", channel),
			zap.Uint8("frame_type", f.FrameType()),
			zap.Int("count", count))
		if cfg.MaxFrames > 0 && count >= cfg.MaxFrames && !halfClosed {
			logger.Info("max frames reached, half-closing")
			if err := writer.Close(); err != nil {
				return err
			}
			halfClosed = true
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
