package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/paulmach/orb"
	"github.com/shiena/ansicolor"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-mapctl/internal/config"
	"github.com/joeblew999/plat-mapctl/internal/server"
	"github.com/joeblew999/plat-mapctl/pkg/mapservice"
)

// Options defines all CLI flags and env vars for the server.
// Flags: --host, --port, --config, --templates, --debug
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_CONFIG, SERVICE_TEMPLATES, SERVICE_DEBUG
type Options struct {
	Host      string `doc:"Host to bind to" default:"0.0.0.0"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8086"`
	Config    string `doc:"Path to the YAML config file" short:"c" default:""`
	Templates string `doc:"Directory overriding the embedded HTML fragments" default:""`
	Debug     bool   `doc:"Enable debug logging" default:"false"`
}

func initLog(debug bool) {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		FieldsOrder:     []string{"component"},
	})
	log.SetOutput(ansicolor.NewAnsiColorWriter(os.Stderr))
	log.SetLevel(log.InfoLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}
}

func loadConfig(opts *Options) config.Config {
	initLog(opts.Debug)
	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return cfg
}

func newServer(opts *Options) *server.Server {
	srv, err := server.New(server.Config{
		Host:        opts.Host,
		Port:        fmt.Sprintf("%d", opts.Port),
		TemplateDir: opts.Templates,
		App:         loadConfig(opts),
	})
	if err != nil {
		log.Fatalf("create server: %v", err)
	}
	return srv
}

func newMapService(opts *Options) *mapservice.MapService {
	sc := loadConfig(opts).Service
	client := mapservice.NewClient(sc.URL, sc.Timeout)
	client.ProxyURL = sc.ProxyURL
	client.AlwaysUseProxy = sc.AlwaysUseProxy
	return mapservice.NewMapService(client)
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%q: want %d comma-separated numbers", s, n)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		srv := newServer(opts)

		hooks.OnStart(func() {
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			log.WithFields(log.Fields{
				"component": "main",
				"url":       baseURL,
				"docs":      baseURL + "/docs",
				"openapi":   baseURL + "/openapi.json",
			}).Info("plat-mapctl server starting")

			if err := http.ListenAndServe(addr, srv); err != nil {
				log.Fatalf("Server error: %v", err)
			}
		})
		hooks.OnStop(func() {
			srv.Close()
		})
	})

	cli.Root().Use = "mapctl"
	cli.Root().Short = "Layer switcher and request builder for named maps"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(opts)
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fail("Error marshaling spec: %v", err)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// layers subcommand: print the resolved catalog and control options
	layersCmd := &cobra.Command{
		Use:   "layers",
		Short: "Print the resolved layer catalog and control options as YAML",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg := loadConfig(opts)
			output, err := yaml.Marshal(struct {
				Control any `yaml:"control"`
				Layers  any `yaml:"layers"`
			}{cfg.Control, cfg.Layers})
			if err != nil {
				fail("Error marshaling catalog: %v", err)
			}
			fmt.Print(string(output))
		}),
	}
	cli.Root().AddCommand(layersCmd)

	// render-url subcommand: build a map image URL
	renderCmd := &cobra.Command{
		Use:   "render-url MAP",
		Short: "Print the image URL of a named map",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			flags := cmd.Flags()
			width, _ := flags.GetInt("width")
			height, _ := flags.GetInt("height")
			srs, _ := flags.GetString("srs")
			imageType, _ := flags.GetString("type")
			bbox, _ := flags.GetString("bbox")
			center, _ := flags.GetString("center")

			o := mapservice.RenderOptions{
				MapName: args[0], ImageType: imageType,
				Width: width, Height: height, SRS: srs,
			}
			if bbox != "" {
				v, err := parseFloats(bbox, 4)
				if err != nil {
					fail("--bbox: %v", err)
				}
				o.Bounds = &orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}
			}
			if center != "" {
				v, err := parseFloats(center, 2)
				if err != nil {
					fail("--center: %v", err)
				}
				o.Center = &orb.Point{v[0], v[1]}
			}

			url, err := newMapService(opts).RenderMapURL(o)
			if err != nil {
				fail("Error: %v", err)
			}
			fmt.Println(url)
		}),
	}
	renderCmd.Flags().Int("width", 512, "Image width in pixels")
	renderCmd.Flags().Int("height", 512, "Image height in pixels")
	renderCmd.Flags().String("srs", "epsg:4326", "Spatial reference of bbox or center")
	renderCmd.Flags().String("type", mapservice.DefaultImageType, "Image type")
	renderCmd.Flags().String("bbox", "", "minx,miny,maxx,maxy")
	renderCmd.Flags().String("center", "", "x,y")
	cli.Root().AddCommand(renderCmd)

	// swatch-url subcommand: build a legend swatch URL
	swatchCmd := &cobra.Command{
		Use:   "swatch-url MAP",
		Short: "Print the URL of one legend swatch of a named map",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			flags := cmd.Flags()
			legend, _ := flags.GetInt("legend")
			row, _ := flags.GetInt("row")
			size, _ := flags.GetInt("size")
			imageType, _ := flags.GetString("type")

			url, err := newMapService(opts).SwatchURL(mapservice.SwatchOptions{
				MapName: args[0], LegendIndex: legend, RowIndex: row,
				Width: size, Height: size, ImageType: imageType,
			})
			if err != nil {
				fail("Error: %v", err)
			}
			fmt.Println(url)
		}),
	}
	swatchCmd.Flags().Int("legend", 0, "Legend index")
	swatchCmd.Flags().Int("row", 0, "Row index")
	swatchCmd.Flags().Int("size", 16, "Swatch width and height in pixels")
	swatchCmd.Flags().String("type", mapservice.DefaultImageType, "Image type")
	cli.Root().AddCommand(swatchCmd)

	cli.Run()
}
