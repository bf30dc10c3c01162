// Copyright 2026 The SafeTrack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/safetrack/safetrack-admin/console"
	"github.com/safetrack/safetrack-admin/safetrackapi/api"
	"github.com/safetrack/safetrack-admin/safetrackapi/client"
	"github.com/safetrack/safetrack-admin/setup/config"
)

const usage = `Usage: %s [flags] <command> [arguments]

Manages SafeTrack boîtiers from a terminal.

Commands:

	list                                     list every registered boîtier
	provision <deveui> <name> [description]  register a boîtier in SafeTrack and ChirpStack
	release <id>                             unpair an ACTIF boîtier from its vehicle
	delete <id>                              remove a DISPONIBLE boîtier for good

Example:

	# ask for the password
	%s -api https://safetrack.example.com -email tech@example.com -ask-pass list
	# read the password from a file
	%s -config safetrack-admin.yaml -email tech@example.com -passwordfile my.pass release 42

Flags:

`

var (
	configPath = flag.String("config", "", "The console config file to read api.base_url from (optional)")
	apiURL     = flag.String("api", "", "The SafeTrack backend origin, overrides the config file")
	email      = flag.String("email", "", "The administrator email")
	password   = flag.String("password", "", "The administrator password")
	pwdFile    = flag.String("passwordfile", "", "The file to read the password from")
	pwdStdin   = flag.Bool("passwordstdin", false, "Reads the password from stdin")
	askPass    = flag.Bool("ask-pass", false, "Ask for the password")
	timeout    = flag.Duration("timeout", 30*time.Second, "Timeout of the whole command, login included")
)

func main() {
	name := os.Args[0]
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, usage, name, name, name)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *email == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	prefix, location, err := backendPrefix(*configPath, *apiURL)
	if err != nil {
		logrus.Fatalln("Unable to find the backend:", err)
	}

	pass, err := getPassword(password, pwdFile, pwdStdin, askPass, os.Stdin)
	if err != nil {
		logrus.Fatalln(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	c := client.New(prefix, nil)
	tokens, err := c.Login(ctx, *email, pass)
	if err != nil {
		logrus.Fatalln("Login failed:", api.Message(err))
	}

	if err = run(ctx, c, tokens.AccessToken, flag.Args(), os.Stdout, location); err != nil {
		cancel()
		logrus.Fatalln(api.Message(err))
	}
}

// backendPrefix resolves the API prefix from the -api flag, or from the
// config file when the flag is empty.
func backendPrefix(configPath, apiURL string) (string, *time.Location, error) {
	cfg := &config.Console{}
	cfg.Defaults(false)
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return "", nil, err
		}
		cfg = loaded
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if cfg.API.BaseURL == "" {
		return "", nil, fmt.Errorf("either -api or -config must be supplied")
	}
	return strings.TrimRight(cfg.API.BaseURL, "/") + config.APIPathPrefix, cfg.Dashboard.Location(), nil
}

func run(ctx context.Context, c api.DeviceAPI, token string, args []string, out io.Writer, loc *time.Location) error {
	switch args[0] {
	case "list":
		devices, err := c.ListDevices(ctx, token)
		if err != nil {
			return err
		}
		return printDevices(out, devices, loc)
	case "provision":
		if len(args) < 3 {
			return fmt.Errorf("usage: provision <deveui> <name> [description]")
		}
		values := console.ProvisionValues{DevEUI: args[1], Name: args[2]}
		if len(args) > 3 {
			values.Description = strings.Join(args[3:], " ")
		}
		req, err := console.Validate(values)
		if err != nil {
			return err
		}
		if _, err = c.Provision(ctx, token, req); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "✅ Boîtier %s enregistré avec succès\n", req.DevEUI)
		return err
	case "release", "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <id>", args[0])
		}
		id, err := console.ParseDeviceID(args[1])
		if err != nil {
			return fmt.Errorf("invalid device id %q", args[1])
		}
		if args[0] == "release" {
			device, err := c.Release(ctx, token, id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "🔄 Boîtier %s libéré — prêt pour re-appairage\n", device.DevEUI)
			return err
		}
		device, err := c.Delete(ctx, token, id)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "🗑️ Boîtier %s supprimé définitivement\n", device.DevEUI)
		return err
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printDevices(out io.Writer, devices []api.Device, loc *time.Location) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDEVEUI\tNOM\tIMMATRICULATION\tSTATUT\tENREGISTRÉ LE\tPROPRIÉTAIRE")
	for _, d := range devices {
		plate, owner, created := "—", "—", "—"
		if d.Plate != nil && *d.Plate != "" {
			plate = *d.Plate
		}
		if d.OwnerUserID != nil {
			owner = strconv.FormatInt(*d.OwnerUserID, 10)
		}
		if d.CreatedAt != nil {
			created = d.CreatedAt.In(loc).Format("02/01/2006 15:04")
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.DevEUI, d.DisplayName("—"), plate, d.Status, created, owner)
	}
	return w.Flush()
}

func getPassword(password, pwdFile *string, pwdStdin, askPass *bool, r io.Reader) (string, error) {
	// password defined as parameter
	if password != nil && *password != "" {
		return *password, nil
	}

	// read password from file
	if pwdFile != nil && *pwdFile != "" {
		pw, err := os.ReadFile(*pwdFile)
		if err != nil {
			return "", fmt.Errorf("Unable to read password from file: %v", err)
		}
		return strings.TrimSpace(string(pw)), nil
	}

	// read password from stdin
	if pwdStdin != nil && *pwdStdin {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("Unable to read password from stdin: %v", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	// ask the user to provide the password
	if askPass != nil && *askPass {
		fmt.Print("Enter Password: ")
		bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", fmt.Errorf("Unable to read password: %v", err)
		}
		fmt.Println()
		return strings.TrimSpace(string(bytePassword)), nil
	}

	return "", fmt.Errorf("no password given, use one of -password, -passwordfile, -passwordstdin or -ask-pass")
}
