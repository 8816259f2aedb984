package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "plusctl",
		Usage: "operate a running pluscode-backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8080",
				Usage:   "base URL of the API server",
				EnvVars: []string{"PLUSCTL_SERVER"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "contact",
				Usage: "submit the contact form the way the site does",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "company"},
					&cli.StringFlag{Name: "message", Required: true},
					&cli.StringFlag{Name: "locale", Value: "en"},
					&cli.StringFlag{
						Name:    "captcha-token",
						Usage:   "reCAPTCHA token obtained from a browser session",
						EnvVars: []string{"PLUSCTL_CAPTCHA_TOKEN"},
					},
				},
				Action: contactAction,
			},
			{
				Name:  "revalidate",
				Usage: "send a signed CMS webhook for a document type and slug",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Required: true, Usage: "document type, e.g. caseStudy"},
					&cli.StringFlag{Name: "slug"},
					&cli.StringFlag{
						Name:    "secret",
						Usage:   "webhook signing secret",
						EnvVars: []string{"SANITY_REVALIDATE_SECRET"},
					},
				},
				Action: revalidateAction,
			},
			{
				Name:      "hash-password",
				Usage:     "print the bcrypt hash for ADMIN_PASSWORD_HASH",
				ArgsUsage: "<password>",
				Action:    hashPasswordAction,
			},
		},
	}
}
