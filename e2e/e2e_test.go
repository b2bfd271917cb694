package e2e

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/parity/app"
	"github.com/kilianp07/parity/config"
	"github.com/kilianp07/parity/core/forecast"
)

// junitReport is a minimal representation of a JUnit XML report. The E2E
// suite writes such a report so CI systems can display the results.
type junitReport struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string  `xml:"name,attr"`
	Failure *string `xml:"failure,omitempty"`
	Time    float64 `xml:"time,attr"`
}

// writeJUnit writes the provided report to the given path.
func writeJUnit(path string, rep junitReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(rep)
}

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"
)

// startInflux starts an InfluxDB 2.7 container pre-provisioned with the E2E
// org, bucket and token, and returns it along with the base URL. The container
// is left running until the context is cancelled.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	url := fmt.Sprintf("http://%s:%s", host, port.Port())
	return cont, url
}

// startMosquitto spins up a basic Mosquitto broker for tests.
func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func writeFixture(t *testing.T, dir, name string, raw []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Test_E2E_ForecastFlow runs the full batch against real backends: forecast a
// catalog region, persist run records to InfluxDB and publish the results on
// MQTT, then read both back.
func Test_E2E_ForecastFlow(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	influxCont, influxURL := startInflux(ctx, t)
	if influxCont != nil {
		defer influxCont.Terminate(ctx) //nolint:errcheck
	}
	mqttCont, mqttURL := startMosquitto(ctx, t)
	if mqttCont != nil {
		defer mqttCont.Terminate(ctx) //nolint:errcheck
	}
	t.Logf("InfluxDB started at %s", influxURL)
	t.Logf("Mosquitto started at %s", mqttURL)

	cli := NewInfluxClient(influxURL, influxOrg, influxBucket, influxToken)
	defer cli.Close()
	if err := cli.SetupBucket(ctx); err != nil {
		t.Fatalf("setup bucket: %v", err)
	}

	dir := t.TempDir()
	catalog := map[string]map[string]map[string][]float64{
		"USA": {
			"disruptor_cost":  {"years": {2018, 2019, 2020}, "values": {50, 45, 40}},
			"incumbent_cost":  {"years": {2018, 2019, 2020}, "values": {45, 45, 45}},
			"market":          {"years": {2018, 2019, 2020}, "values": {1000, 1000, 1000}},
			"disruptor_units": {"years": {2018, 2019, 2020}, "values": {50, 80, 120}},
		},
	}
	rawCatalog, err := json.Marshal(catalog)
	if err != nil {
		t.Fatal(err)
	}
	catalogPath := writeFixture(t, dir, "catalog.json", rawCatalog)
	cfgPath := writeFixture(t, dir, "config.yaml", []byte(fmt.Sprintf(`
scenario:
  end_year: 2030
catalog:
  path: %s
metrics:
  sinks:
    - type: influx
      conf:
        url: %s
        token: %s
        org: %s
        bucket: %s
publish:
  enabled: true
  broker: %s
  client_id: parity-e2e
`, catalogPath, influxURL, influxToken, influxOrg, influxBucket, mqttURL)))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	received := make(chan forecast.Result, 4)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(mqttURL).SetClientID("parity-e2e-sub"))
	if token := sub.Connect(); token.Wait() && token.Error() != nil {
		t.Fatalf("subscriber connect: %v", token.Error())
	}
	defer sub.Disconnect(250)
	if token := sub.Subscribe("parity/forecast/#", 1, func(_ paho.Client, msg paho.Message) {
		var res forecast.Result
		if err := json.Unmarshal(msg.Payload(), &res); err != nil {
			return
		}
		received <- res
	}); token.Wait() && token.Error() != nil {
		t.Fatalf("subscribe: %v", token.Error())
	}

	svc, err := app.New(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close() //nolint:errcheck
	if _, err := svc.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	regions := map[string]bool{}
	deadline := time.After(10 * time.Second)
	for len(regions) < 2 {
		select {
		case res := <-received:
			if res.TippingPointYear == nil || *res.TippingPointYear != 2020 {
				t.Fatalf("region %s: expected tipping year 2020, got %v", res.Region, res.TippingPointYear)
			}
			regions[res.Region] = true
		case <-deadline:
			t.Fatalf("timed out waiting for publishes, got %v", regions)
		}
	}
	if !regions["USA"] || !regions["Global"] {
		t.Fatalf("expected USA and Global publishes, got %v", regions)
	}

	res, err := cli.Query(ctx, fmt.Sprintf(
		`from(bucket:"%s") |> range(start:-1h) |> filter(fn: (r) => r._measurement == "forecast_run")`, influxBucket))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer res.Close()
	count := 0
	for res.Next() {
		count++
	}
	if count == 0 {
		t.Fatalf("no forecast_run records returned from Influx")
	}
	t.Logf("Influx query returned %d forecast_run rows", count)

	rep := junitReport{Name: "e2e", Tests: 1, Cases: []junitTestCase{{Name: "Test_E2E_ForecastFlow", Time: 0}}}
	if err := writeJUnit(filepath.Join(dir, "e2e.xml"), rep); err != nil {
		t.Logf("write junit: %v", err)
	}
}
