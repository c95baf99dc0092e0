package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/okian/loftmatch/internal/adapters/loader"
	service "github.com/okian/loftmatch/internal/app"
	"github.com/okian/loftmatch/internal/config"
	"github.com/okian/loftmatch/internal/domain/scoring"
	"github.com/okian/loftmatch/internal/domain/types"
	"github.com/okian/loftmatch/internal/loadtest"
	"github.com/okian/loftmatch/internal/sampledata"
	"github.com/okian/loftmatch/pkg/logger"
	"github.com/okian/loftmatch/pkg/report"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = os.Unsetenv(config.EnvConfigPath)
	os.Exit(m.Run())
}

// run executes the CLI with args and returns stdout.
func run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSample(t *testing.T, name string, count int) string {
	path := filepath.Join(t.TempDir(), name)
	out, err := run("sample", "--count", strconv.Itoa(count), "--seed", "7", "--out", path, "--log-level", "error")
	convey.So(err, convey.ShouldBeNil)
	convey.So(out, convey.ShouldContainSubstring, "wrote")
	return path
}

func TestSampleCommand(t *testing.T) {
	convey.Convey("Given the sample command", t, func() {
		convey.Convey("When writing a CSV sample", func() {
			path := writeSample(t, "loft.csv", 6)

			convey.Convey("Then the file loads as a valid dataset", func() {
				table, err := loader.LoadFile(context.Background(), path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(table.Rows), convey.ShouldEqual, 6)
				convey.So(table.Rows[0][0], convey.ShouldEqual, "P001")
			})
		})

		convey.Convey("When writing an XLSX sample", func() {
			path := writeSample(t, "loft.xlsx", 4)

			convey.Convey("Then the workbook loads", func() {
				table, err := loader.LoadFile(context.Background(), path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(table.Rows), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When too few individuals are requested", func() {
			_, err := run("sample", "--count", "1", "--out", filepath.Join(t.TempDir(), "x.csv"))

			convey.Convey("Then it fails", func() {
				convey.So(errors.Is(err, sampledata.ErrTooFew), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the output extension is unsupported", func() {
			_, err := run("sample", "--out", filepath.Join(t.TempDir(), "x.json"))

			convey.Convey("Then it fails", func() {
				convey.So(errors.Is(err, loader.ErrUnsupportedFormat), convey.ShouldBeTrue)
			})
		})
	})
}

func TestCandidatesCommand(t *testing.T) {
	convey.Convey("Given a sample dataset", t, func() {
		path := writeSample(t, "loft.csv", 6)

		convey.Convey("When listing candidates as JSON", func() {
			out, err := run("candidates", "--data", path, "--output", "json", "--log-level", "error")

			convey.Convey("Then both sides are listed", func() {
				convey.So(err, convey.ShouldBeNil)
				var list types.Candidates
				convey.So(json.Unmarshal([]byte(out), &list), convey.ShouldBeNil)
				convey.So(len(list.Males), convey.ShouldEqual, 3)
				convey.So(len(list.Females), convey.ShouldEqual, 3)
				convey.So(list.Males[0].ID, convey.ShouldEqual, "P001")
				convey.So(list.Females[0].ID, convey.ShouldEqual, "P002")
			})
		})

		convey.Convey("When listing candidates as text", func() {
			out, err := run("candidates", "--data", path, "--log-level", "error")

			convey.Convey("Then a table is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "SIDE")
				convey.So(out, convey.ShouldContainSubstring, "P006")
			})
		})
	})
}

func TestScoreCommand(t *testing.T) {
	convey.Convey("Given a sample dataset", t, func() {
		path := writeSample(t, "loft.csv", 6)

		convey.Convey("When a pair is scored as JSON with overrides", func() {
			out, err := run("score", "--data", path, "--male", "P001", "--female", "P002",
				"--output", "json", "--w-color", "0.5", "--target-weight", "420", "--log-level", "error")

			convey.Convey("Then the report uses the overrides", func() {
				convey.So(err, convey.ShouldBeNil)
				var rep report.Report
				convey.So(json.Unmarshal([]byte(out), &rep), convey.ShouldBeNil)
				convey.So(rep.Male.ID, convey.ShouldEqual, "P001")
				convey.So(rep.Female.ID, convey.ShouldEqual, "P002")
				convey.So(rep.Weights.Color, convey.ShouldEqual, 0.5)
				convey.So(rep.Weights.Power, convey.ShouldEqual, scoring.DefaultWeights().Power)
				convey.So(rep.TargetWeight, convey.ShouldEqual, 420)
				convey.So(rep.Compatibility, convey.ShouldBeBetweenOrEqual, 0, 100)
			})
		})

		convey.Convey("When a pair is scored as text", func() {
			out, err := run("score", "-d", path, "-m", "P001", "-f", "P002", "--log-level", "error")

			convey.Convey("Then a readable report is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Compatibility:")
			})
		})

		convey.Convey("When a coefficient is negative", func() {
			_, err := run("score", "-d", path, "-m", "P001", "-f", "P002", "--w-health=-1", "--log-level", "error")

			convey.Convey("Then the weights are rejected", func() {
				convey.So(errors.Is(err, scoring.ErrInvalidWeights), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the female ID is taken from the male side", func() {
			_, err := run("score", "-d", path, "-m", "P001", "-f", "P003", "--log-level", "error")

			convey.Convey("Then selection fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(service.ErrorKind(err), convey.ShouldEqual, "ambiguous_or_missing_id")
			})
		})

		convey.Convey("When a required flag is missing", func() {
			_, err := run("score", "-d", path, "-m", "P001")

			convey.Convey("Then cobra reports it", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "female")
			})
		})
	})
}

func TestMatchesCommand(t *testing.T) {
	convey.Convey("Given a sample dataset", t, func() {
		path := writeSample(t, "loft.csv", 6)

		convey.Convey("When ranking the partners of a male as JSON", func() {
			out, err := run("matches", "--data", path, "--id", "P001", "--side", "male",
				"--output", "json", "--log-level", "error")

			convey.Convey("Then every female is ranked best first", func() {
				convey.So(err, convey.ShouldBeNil)
				var res types.Matches
				convey.So(json.Unmarshal([]byte(out), &res), convey.ShouldBeNil)
				convey.So(res.Subject.ID, convey.ShouldEqual, "P001")
				convey.So(res.Scored, convey.ShouldEqual, 3)
				convey.So(len(res.Matches), convey.ShouldEqual, 3)
				for i := 1; i < len(res.Matches); i++ {
					convey.So(res.Matches[i-1].Compatibility, convey.ShouldBeGreaterThanOrEqualTo, res.Matches[i].Compatibility)
				}
			})
		})

		convey.Convey("When ranking as text with a limit", func() {
			out, err := run("matches", "-d", path, "--id", "P002", "-s", "f", "-n", "1", "--log-level", "error")

			convey.Convey("Then a single ranked row is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "RANK")
				convey.So(out, convey.ShouldContainSubstring, "3 scored")
				convey.So(strings.Count(out, "\n"), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the side is not a gender", func() {
			_, err := run("matches", "-d", path, "--id", "P001", "-s", "both", "--log-level", "error")

			convey.Convey("Then the side is rejected", func() {
				convey.So(service.ErrorKind(err), convey.ShouldEqual, "invalid_side")
			})
		})
	})
}

func TestLoadtestCommand(t *testing.T) {
	convey.Convey("Given a server built from the default config", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithLogger(logger.Nop()))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		srv := httptest.NewServer(newHandler(ctx, svc, config.New(), logger.Nop()))
		defer srv.Close()

		convey.Convey("When a load test runs against it", func() {
			out, err := run("loadtest", "--url", srv.URL, "--individuals", "6", "--pairs", "12",
				"--workers", "2", "--seed", "3", "--log-level", "error")

			convey.Convey("Then the statistics are printed as JSON", func() {
				convey.So(err, convey.ShouldBeNil)
				var stats loadtest.Stats
				convey.So(json.Unmarshal([]byte(out), &stats), convey.ShouldBeNil)
				convey.So(stats.PairsScored, convey.ShouldEqual, 12)
				convey.So(stats.MatchesChecked, convey.ShouldEqual, 3)
			})
		})
	})
}

func TestConfigFlag(t *testing.T) {
	convey.Convey("Given a config file with an invalid log format", t, func() {
		path := filepath.Join(t.TempDir(), "loft.yaml")
		convey.So(os.WriteFile(path, []byte("log_format: xml\n"), 0o600), convey.ShouldBeNil)

		_, err := run("--config", path, "sample", "--out", filepath.Join(t.TempDir(), "x.csv"))

		convey.Convey("Then every command refuses to start", func() {
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestServeHandler(t *testing.T) {
	convey.Convey("Given the serve handler", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithLogger(logger.Nop()))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, svc, config.New(), logger.Nop())

		convey.Convey("Then API, docs and metrics routes are registered", func() {
			for _, path := range []string{"/healthz", "/stats", "/metrics", "/openapi.yaml", "/api-docs"} {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("And system metrics can be refreshed", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
