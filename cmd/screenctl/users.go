package main

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yourusername/screening-api/internal/model"
	"github.com/yourusername/screening-api/internal/repository"
	"github.com/yourusername/screening-api/internal/service"
)

var (
	newUser     service.NewUser
	newPassword string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage recruiter accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if newUser.Password == "" {
			pw, err := promptPassword("Password")
			if err != nil {
				return err
			}
			newUser.Password = pw
		}

		auth, closeDB, err := authService(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		u, err := auth.Register(cmd.Context(), newUser)
		if err != nil {
			return err
		}
		log.Info().Str("username", u.Username).Str("role", u.Role).Msg("User created")
		return nil
	},
}

var usersSetPasswordCmd = &cobra.Command{
	Use:   "set-password <username>",
	Short: "Replace an account's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if newPassword == "" {
			pw, err := promptPassword("New password")
			if err != nil {
				return err
			}
			newPassword = pw
		}

		auth, closeDB, err := authService(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		if err := auth.SetPassword(cmd.Context(), args[0], newPassword); err != nil {
			return err
		}
		log.Info().Str("username", args[0]).Msg("Password updated")
		return nil
	},
}

func init() {
	f := usersCreateCmd.Flags()
	f.StringVar(&newUser.Username, "username", "", "login name (3-50 letters, digits or underscores)")
	f.StringVar(&newUser.Email, "email", "", "email address")
	f.StringVar(&newUser.Department, "department", "", "department, must be one of ALLOWED_DEPARTMENTS")
	f.StringVar(&newUser.Role, "role", model.RoleUser, "user or admin")
	f.StringVar(&newUser.Password, "password", "", "password (prompted when omitted)")
	for _, name := range []string{"username", "email", "department"} {
		_ = usersCreateCmd.MarkFlagRequired(name)
	}

	usersSetPasswordCmd.Flags().StringVar(&newPassword, "password", "", "new password (prompted when omitted)")

	usersCmd.AddCommand(usersCreateCmd, usersSetPasswordCmd)
}

func authService(cmd *cobra.Command) (*service.AuthService, func(), error) {
	pool, db, err := openDatabase(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpire)
	auth := service.NewAuthService(repository.NewUserRepo(db), tokens, service.AuthPolicy{
		EmailDomain: cfg.AllowedEmailDomain,
		Departments: cfg.AllowedDepartments,
	})
	return auth, func() {
		db.Close()
		pool.Close()
	}, nil
}

func promptPassword(label string) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: service.ValidatePassword,
	}
	pw, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return pw, nil
}
