// Command hxstore serves the demo application and inspects its models.
package main

func main() {
	Execute()
}
