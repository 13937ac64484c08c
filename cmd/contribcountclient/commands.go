package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/m-zajac/contribcount/internal/app"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type options struct {
	server   string
	grpcAddr string
	timeout  time.Duration

	// set in tests
	newClient func(o *options) (jobClient, func(), error)
}

func newRootCmd() *cobra.Command {
	o := &options{
		newClient: dialClient,
	}

	rootCmd := &cobra.Command{
		Use:           "contribcountclient",
		Short:         "Counts recently active contributors of a GitHub organization or GitLab group",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&o.server, "server", "s", "http://localhost:3001", "http server address")
	rootCmd.PersistentFlags().StringVar(&o.grpcAddr, "grpc", "", "grpc server address in the format of host:port; overrides --server")
	rootCmd.PersistentFlags().DurationVar(&o.timeout, "timeout", 10*time.Second, "timeout of a single api call")

	rootCmd.AddCommand(
		newCountCmd(o),
		newStatusCmd(o),
		newResultCmd(o),
	)

	return rootCmd
}

func newCountCmd(o *options) *cobra.Command {
	var (
		req      app.JobRequest
		platform string
		interval time.Duration
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Start a job and wait for its result",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Platform = app.Platform(platform)
			if req.Token == "" {
				req.Token = os.Getenv("CONTRIBCOUNT_TOKEN")
			}

			client, closeFn, err := o.newClient(o)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			id, err := withTimeout(ctx, o.timeout, func(ctx context.Context) (string, error) {
				return client.Start(ctx, req)
			})
			if err != nil {
				return fmt.Errorf("starting job: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "job %s started\n", id)

			result, err := wait(ctx, client, id, interval, o.timeout, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			return printResult(cmd.OutOrStdout(), result, asJSON)
		},
	}
	cmd.Flags().StringVarP(&req.Org, "org", "o", "", "organization (github) or group path (gitlab)")
	cmd.Flags().StringVarP(&platform, "platform", "p", string(app.PlatformGithub), "github or gitlab")
	cmd.Flags().StringVarP(&req.Token, "token", "t", "", "access token, defaults to CONTRIBCOUNT_TOKEN env variable")
	cmd.Flags().StringVarP(&req.URL, "url", "u", "", "gitlab instance url, required for gitlab")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "status polling interval")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print result as json")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}

func newStatusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status JOB_ID",
		Short: "Print job status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := o.newClient(o)
			if err != nil {
				return err
			}
			defer closeFn()

			s, err := withTimeout(cmd.Context(), o.timeout, func(ctx context.Context) (*jobStatus, error) {
				return client.Status(ctx, args[0])
			})
			if err != nil {
				return err
			}

			printStatus(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func newResultCmd(o *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "result JOB_ID",
		Short: "Print job result, or its status if the job isn't complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := o.newClient(o)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()
			result, s, err := client.Result(ctx, args[0])
			if err != nil {
				return err
			}
			if result == nil {
				printStatus(cmd.OutOrStdout(), s)
				return nil
			}

			return printResult(cmd.OutOrStdout(), result, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print result as json")

	return cmd
}

func dialClient(o *options) (jobClient, func(), error) {
	if o.grpcAddr == "" {
		return newHTTPJobClient(&http.Client{}, o.server), func() {}, nil
	}

	conn, err := grpc.Dial(o.grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial: %w", err)
	}

	return newGRPCJobClient(conn), func() { conn.Close() }, nil
}

// wait polls job status until the job is terminal and returns its result.
func wait(
	ctx context.Context,
	client jobClient,
	id string,
	interval time.Duration,
	timeout time.Duration,
	progressOut io.Writer,
) (*app.Result, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s, err := withTimeout(ctx, timeout, func(ctx context.Context) (*jobStatus, error) {
			return client.Status(ctx, id)
		})
		if err != nil {
			return nil, fmt.Errorf("reading job status: %w", err)
		}

		switch s.Status {
		case app.StatusError:
			msg := "unknown error"
			if s.Error != nil {
				msg = *s.Error
			}
			return nil, errors.New(msg)
		case app.StatusComplete:
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			result, _, err := client.Result(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("reading job result: %w", err)
			}
			if result == nil {
				return nil, errors.New("job complete but no result returned")
			}
			return result, nil
		}

		if s.Progress != nil {
			fmt.Fprintf(progressOut, "%s: %s\n", s.Status, s.Progress)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func withTimeout[T any](ctx context.Context, timeout time.Duration, f func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return f(ctx)
}

func printStatus(w io.Writer, s *jobStatus) {
	fmt.Fprintf(w, "status: %s\n", s.Status)
	if s.Error != nil {
		fmt.Fprintf(w, "error: %s\n", *s.Error)
	}
	if s.Progress != nil {
		fmt.Fprintf(w, "progress: %s\n", s.Progress)
	}
}

func printResult(w io.Writer, result *app.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(w, "%s (%s): %d active contributors\n\n", result.Org, result.Platform, len(result.Contributors))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMITS\tUSERNAME\tNAME\tEMAIL")
	for _, c := range result.Contributors {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.Contributions, c.Username, c.Name, c.Email)
	}
	return tw.Flush()
}
