package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	pkgauth "github.com/cheikhbeye/oleashop-backend/pkg/auth"
	"github.com/cheikhbeye/oleashop-backend/pkg/config"
	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
)

// There is no operator login endpoint; back-office tokens are minted out of
// band with this tool and handed to the admin UI.
func main() {
	_ = godotenv.Load()

	roleFlag := flag.String("role", string(enums.ActorRoleAdmin), "token role: admin|staff")
	actorFlag := flag.String("actor", "", "actor id (uuid, random when empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	role, err := enums.ParseActorRole(*roleFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	actorID := uuid.New()
	if *actorFlag != "" {
		actorID, err = uuid.Parse(*actorFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -actor value: %v\n", err)
			os.Exit(1)
		}
	}

	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		ActorID: actorID,
		Role:    role,
		JTI:     uuid.NewString(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to mint token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
