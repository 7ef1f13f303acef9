package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"syscall"

	"github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/term"

	orgauth "github.com/goliatone/go-orgauth"
)

// App wires the engine components behind the interactive menu.
type App struct {
	gateway *orgauth.Gateway
	users   *orgauth.UserManager
	regions *orgauth.RegionManager
	config  *orgauth.SimpleConfig
	stdin   *bufio.Reader
}

func main() {
	configPath := flag.String("config", "orgadmin.yml", "path to the config file")
	dbPath := flag.String("db", "", "database path, overrides the config file")
	flag.Parse()

	if err := run(*configPath, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "orgadmin: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dbPath string) error {
	ctx := context.Background()

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*orgauth.User)(nil))
	persistence.RegisterModel((*orgauth.Session)(nil))
	persistence.RegisterModel((*orgauth.LoginAttempt)(nil))

	client, err := persistence.New(cfg.Persistence(), sqldb, sqlitedialect.New())
	if err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}

	migrationsFS, err := fs.Sub(orgauth.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}

	db := client.DB()
	defer db.Close()

	engineCfg := cfg.EngineConfig()
	store := orgauth.NewStore(db)
	registry, err := orgauth.NewRegistryFromStore(ctx, engineCfg, store.Identities())
	if err != nil {
		return err
	}
	gateway := orgauth.NewGateway(store, engineCfg)
	sessions := gateway.SessionManager()

	app := &App{
		gateway: gateway,
		users:   orgauth.NewUserManager(store, sessions, registry, engineCfg),
		regions: orgauth.NewRegionManager(store, sessions, registry),
		config:  engineCfg,
		stdin:   bufio.NewReader(os.Stdin),
	}

	fmt.Println("=== System initialization ===")
	if account, err := gateway.ProvisionSuperAdmin(ctx); err != nil {
		return err
	} else if account != nil {
		fmt.Println("Super admin account created:")
		printAccount(*account)
	}

	return app.loop(ctx)
}

func (a *App) loop(ctx context.Context) error {
	for {
		if !a.gateway.IsAuthenticated(ctx) {
			fmt.Println("\nSign-in required")
			fmt.Println("1. Sign in")
			fmt.Println("Q. Quit")

			switch a.promptChoice("\nYour choice: ") {
			case "1":
				a.login(ctx)
			case "Q":
				return nil
			default:
				fmt.Println("Invalid choice")
			}
			continue
		}

		choice, err := a.menu(ctx)
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			a.addUser(ctx)
		case "2":
			a.modifyUser(ctx)
		case "3":
			a.deleteUser(ctx)
		case "4":
			a.listUsers(ctx)
		case "5":
			a.resetPassword(ctx)
		case "6":
			a.provisionRegionalAdmins(ctx)
		case "7":
			a.manageRegions(ctx)
		case "D":
			if err := a.gateway.Logout(ctx); err != nil {
				printErr(err)
			} else {
				fmt.Println("Signed out")
			}
		case "Q":
			fmt.Println("Goodbye!")
			return nil
		default:
			fmt.Println("Invalid choice")
		}
	}
}

func (a *App) menu(ctx context.Context) (string, error) {
	info, err := a.gateway.CurrentRoleAndRegion(ctx)
	if err != nil {
		return "", err
	}

	fmt.Println("\n=== User Administration Tool ===")
	fmt.Println("1. Add a user")
	fmt.Println("2. Modify a user")
	fmt.Println("3. Delete a user")
	fmt.Println("4. List users")
	fmt.Println("5. Reset a password")

	if info != nil && info.Role == orgauth.RoleSuperAdmin {
		fmt.Println("6. Provision regional administrators")
		fmt.Println("7. Manage regions")
	}

	fmt.Println("D. Sign out")
	fmt.Println("Q. Quit")

	return a.promptChoice("\nYour choice: "), nil
}

func (a *App) login(ctx context.Context) {
	login := a.prompt("Login: ")
	password, err := a.promptPassword("Password: ")
	if err != nil {
		printErr(err)
		return
	}

	result, err := a.gateway.Login(ctx, login, password)
	if err != nil {
		printErr(err)
		return
	}

	fmt.Printf("Welcome, %s (%s)\n", result.DisplayName, result.Role)
}

func (a *App) addUser(ctx context.Context) {
	input := orgauth.NewUserInput{
		FirstName: a.prompt("First name: "),
		LastName:  a.prompt("Last name: "),
		Region:    a.prompt("Region: "),
	}

	role, ok := orgauth.ParseRole(a.prompt("Role (admin/user): "))
	if !ok {
		fmt.Println("Invalid role")
		return
	}
	input.Role = role

	account, err := a.users.Add(ctx, input)
	if err != nil {
		printErr(err)
		return
	}

	fmt.Println("User created:")
	printAccount(*account)
}

func (a *App) modifyUser(ctx context.Context) {
	login := a.prompt("Login of the user to modify: ")
	field := a.prompt("Field to modify (first_name/last_name/role/region): ")
	value := a.prompt(fmt.Sprintf("New value for %s: ", field))

	update, err := orgauth.ParseUserUpdate(field, value)
	if err != nil {
		printErr(err)
		return
	}

	if err := a.users.Modify(ctx, login, update); err != nil {
		printErr(err)
		return
	}
	fmt.Println("User updated")
}

func (a *App) deleteUser(ctx context.Context) {
	login := a.prompt("Login of the user to delete: ")
	if err := a.users.Delete(ctx, login); err != nil {
		printErr(err)
		return
	}
	fmt.Println("User deleted")
}

func (a *App) listUsers(ctx context.Context) {
	filter := orgauth.UserFilter{
		Region: a.prompt("Filter by region (empty for all): "),
	}

	if role := a.prompt("Filter by role (empty for all): "); role != "" {
		parsed, ok := orgauth.ParseRole(role)
		if !ok {
			fmt.Println("Invalid role")
			return
		}
		filter.Role = parsed
	}

	users, err := a.users.List(ctx, filter)
	if err != nil {
		printErr(err)
		return
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return
	}

	fmt.Printf("\n%-15s %-25s %-12s %-12s\n", "LOGIN", "NAME", "ROLE", "REGION")
	for _, u := range users {
		fmt.Printf("%-15s %-25s %-12s %-12s\n", u.Login, u.DisplayName(), u.Role, u.Region)
	}
}

func (a *App) resetPassword(ctx context.Context) {
	login := a.prompt("Login of the user: ")
	password, err := a.users.ResetPassword(ctx, login)
	if err != nil {
		printErr(err)
		return
	}
	fmt.Printf("New password for %s: %s\n", login, password)
}

func (a *App) provisionRegionalAdmins(ctx context.Context) {
	accounts, err := a.gateway.ProvisionRegionalAdmins(ctx, a.config.BootstrapRegions)
	if err != nil {
		printErr(err)
	}

	if len(accounts) == 0 {
		fmt.Println("All regions already have an administrator")
		return
	}

	fmt.Println("Regional administrators created:")
	for _, account := range accounts {
		printAccount(account)
	}
}

func (a *App) manageRegions(ctx context.Context) {
	fmt.Println("\n=== Region Management ===")
	fmt.Println("1. List regions")
	fmt.Println("2. Add a region")
	fmt.Println("3. Remove a region")
	fmt.Println("4. Transfer users between regions")

	switch a.promptChoice("\nYour choice: ") {
	case "1":
		stats, err := a.regions.List(ctx)
		if err != nil {
			printErr(err)
			return
		}
		fmt.Printf("\n%-15s %-8s %-8s\n", "REGION", "USERS", "ADMINS")
		for _, s := range stats {
			fmt.Printf("%-15s %-8d %-8d\n", s.Region, s.Users, s.Admins)
		}
	case "2":
		if err := a.regions.Add(ctx, a.prompt("Region name: ")); err != nil {
			printErr(err)
			return
		}
		fmt.Println("Region added")
	case "3":
		if err := a.regions.Remove(ctx, a.prompt("Region name: ")); err != nil {
			printErr(err)
			return
		}
		fmt.Println("Region removed")
	case "4":
		source := a.prompt("Source region: ")
		target := a.prompt("Target region: ")
		moved, err := a.regions.TransferUsers(ctx, source, target)
		if err != nil {
			printErr(err)
			return
		}
		fmt.Printf("%d user(s) moved from %s to %s\n", moved, source, target)
	default:
		fmt.Println("Invalid choice")
	}
}

func (a *App) prompt(label string) string {
	fmt.Print(label)
	line, _ := a.stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

func (a *App) promptChoice(label string) string {
	return strings.ToUpper(a.prompt(label))
}

func (a *App) promptPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func printAccount(account orgauth.ProvisionedAccount) {
	fmt.Printf("  region: %-12s login: %-12s password: %s\n", account.Region, account.Login, account.Password)
}

func printErr(err error) {
	switch {
	case orgauth.IsLocked(err):
		fmt.Println("Account temporarily locked, try again later")
	case orgauth.IsInvalidCredentials(err):
		fmt.Println("Invalid login or password")
	case orgauth.IsNotAuthorized(err):
		fmt.Println("You are not allowed to perform this action")
	default:
		fmt.Printf("Error: %v\n", err)
	}
}
