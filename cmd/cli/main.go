package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "user":
		handleUser(args)
	case "setting":
		handleSetting(args)
	case "telemetry":
		handleTelemetry(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: adminbase auth <register|login|logout|who>")
		return
	}

	switch args[0] {
	case "register":
		registerUser(args[1:])
	case "login":
		login(args[1:])
	case "logout":
		logout()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", args[0])
	}
}

func handleUser(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: adminbase user <list|get|delete|activate>")
		return
	}

	switch args[0] {
	case "list":
		listUsers(args[1:])
	case "get":
		getUser(args[1:])
	case "delete":
		deleteUser(args[1:])
	case "activate":
		activateUser(args[1:])
	default:
		fmt.Printf("unknown user command: %s\n", args[0])
	}
}

func handleSetting(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: adminbase setting <list|get|set|delete>")
		return
	}

	switch args[0] {
	case "list":
		listSettings(args[1:])
	case "get":
		getSetting(args[1:])
	case "set":
		setSetting(args[1:])
	case "delete":
		deleteSetting(args[1:])
	default:
		fmt.Printf("unknown setting command: %s\n", args[0])
	}
}

func handleTelemetry(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: adminbase telemetry <events|metrics|logs>")
		return
	}

	switch args[0] {
	case "events":
		listJSON("/telemetry/events", args[1:])
	case "metrics":
		listJSON("/telemetry/metrics", args[1:])
	case "logs":
		listJSON("/telemetry/logs", args[1:])
	default:
		fmt.Printf("unknown telemetry command: %s\n", args[0])
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	fullName := fs.String("full-name", "", "full name (optional)")

	fs.Parse(args)

	if *email == "" || *username == "" || *password == "" {
		fmt.Println("Error: email, username, and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"email":    *email,
		"username": *username,
		"password": *password,
	}
	if *fullName != "" {
		payload["full_name"] = *fullName
	}

	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/register", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ User registered: %s (check email for the activation link)\n", *email)
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result)
	}
}

func login(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	identifier := fs.String("user", "", "email or username")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *identifier == "" || *password == "" {
		fmt.Println("Error: user and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"identifier": *identifier, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *identifier)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logout() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/auth/me", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		fmt.Println("Not logged in")
		return
	}

	var identity map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&identity)
	fmt.Printf("✓ Logged in as %v (%v), admin=%v\n", identity["username"], identity["email"], identity["is_superuser"])
}

// User commands
func listUsers(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	sort := fs.String("sort", "", "sort field")
	order := fs.String("order", "asc", "sort order (asc|desc)")
	fs.Parse(args)

	url := getAPIURL() + "/users"
	if *sort != "" {
		url += "?sort=" + *sort + "&order=" + *order
	}

	req, _ := http.NewRequest("GET", url, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var users []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&users)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tUSERNAME\tACTIVE\tADMIN")
	for _, u := range users {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", u["id"], u["email"], u["username"], u["is_active"], u["is_superuser"])
	}
	w.Flush()
}

func getUser(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: adminbase user get <id>")
		return
	}
	getJSON("/users/" + args[0])
}

func deleteUser(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: adminbase user delete <id>")
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/users/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 200 {
		fmt.Println("✓ User deleted")
	} else {
		fmt.Printf("✗ Delete failed (status %d)\n", resp.StatusCode)
	}
}

func activateUser(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: adminbase user activate <token>")
		return
	}
	getJSON("/auth/activate/" + args[0])
}

// Setting commands
func listSettings(args []string) {
	_ = args
	getJSON("/settings")
}

func getSetting(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: adminbase setting get <name>")
		return
	}
	getJSON("/settings/" + args[0])
}

func setSetting(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: adminbase setting set <name> <value>")
		return
	}

	payload := map[string]string{"setting_name": args[0], "value": args[1]}
	data, _ := json.Marshal(payload)

	// Try update first; create when the setting does not exist yet.
	req, _ := http.NewRequest("PUT", getAPIURL()+"/settings/"+args[0], bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode == 404 {
		req, _ = http.NewRequest("POST", getAPIURL()+"/settings", bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		addAuthHeader(req)
		resp, err = http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		resp.Body.Close()
	}

	if resp.StatusCode == 200 || resp.StatusCode == 201 {
		fmt.Printf("✓ Setting %s = %s\n", args[0], args[1])
	} else {
		fmt.Printf("✗ Failed (status %d)\n", resp.StatusCode)
	}
}

func deleteSetting(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: adminbase setting delete <name>")
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/settings/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 200 {
		fmt.Println("✓ Setting deleted")
	} else {
		fmt.Printf("✗ Delete failed (status %d)\n", resp.StatusCode)
	}
}

// Shared helpers
func getJSON(path string) {
	req, _ := http.NewRequest("GET", getAPIURL()+path, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}

func listJSON(path string, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.String("limit", "", "max rows")
	fs.Parse(args)

	url := getAPIURL() + path
	if *limit != "" {
		url += "?limit=" + *limit
	}

	req, _ := http.NewRequest("GET", url, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}

func getAPIURL() string {
	if url := os.Getenv("ADMINBASE_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.adminbase/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.adminbase", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`adminbase CLI

Usage:
  adminbase <command> [options]

Commands:
  auth register -email <e> -username <u> -password <p>   Register an account
  auth login -user <email|username> -password <p>        Log in and store the token
  auth logout                                            Drop the stored token
  auth who                                               Show the current identity
  user list [-sort <field>] [-order asc|desc]            List users (admin)
  user get <id>                                          Show one user (admin)
  user delete <id>                                       Delete a user (admin)
  user activate <token>                                  Consume an activation token
  setting list|get|set|delete                            Manage settings (admin)
  telemetry events|metrics|logs [-limit <n>]             Tail telemetry stores
  help                                                   Show this help
`)
}
