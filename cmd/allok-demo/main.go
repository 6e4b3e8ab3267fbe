// Command allok-demo exercises the allocator interactively: it allocates
// int arrays of sizes you give it, reports allocator stats, and frees
// everything it holds on exit.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"github.com/jasperdevir/allok-go/internal/allocator"
)

const (
	maxArraySize = 2000
	maxArrayAmt  = 100
)

func main() {
	arrayPtrArena, err := allocator.AllocArena(maxArrayAmt * uint64(unsafe.Sizeof(uintptr(0))))
	if err != nil {
		fmt.Fprintf(os.Stderr, "AllocArena failed: %v\n", err)
		os.Exit(1)
	}

	tableSize := maxArrayAmt * uint64(unsafe.Sizeof(uintptr(0)))

	tablePtr, err := arrayPtrArena.Claim(tableSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Claim failed: %v\n", err)
		os.Exit(1)
	}

	arrayPtrs := unsafe.Slice((*unsafe.Pointer)(tablePtr), maxArrayAmt)
	arrayCount := 0

	fmt.Println("======== allok-go demo ========")

	scanner := bufio.NewScanner(os.Stdin)

readLoop:
	for {
		fmt.Printf("\nEnter length of array (1-%d)\n", maxArraySize)
		fmt.Println("Enter -2 to view allocator stats")
		fmt.Println("Enter -1 to quit")

		if !scanner.Scan() {
			break
		}

		size, convErr := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if convErr != nil {
			fmt.Println("Invalid input.")

			continue
		}

		if size < 1 || size > maxArraySize {
			switch size {
			case -2:
				printStats(arrayCount)
			case -1:
				break readLoop
			default:
				fmt.Printf("Invalid input. Length must be between 1 and %d.\n", maxArraySize)
			}

			continue
		}

		allocSize := uint64(size) * uint64(unsafe.Sizeof(int(0)))

		arr, allocErr := allocator.Allocate(allocSize)
		if allocErr != nil {
			fmt.Println("Error allocating memory.")

			continue
		}

		arrayPtrs[arrayCount] = arr
		arrayCount++

		fmt.Printf("Array of %d elements and %d bytes allocated!\n", size, allocSize)

		if arrayCount >= maxArrayAmt {
			fmt.Println("Maximum number of arrays exceeded.")

			break
		}
	}

	fmt.Println("Exiting...")

	if arrayCount > 0 {
		fmt.Printf("\nFreeing %d arrays from memory\n", arrayCount)

		for i := 0; i < arrayCount; i++ {
			if arrayPtrs[i] == nil {
				continue
			}

			if err := allocator.Free(&arrayPtrs[i]); err != nil {
				fmt.Println("Error freeing memory.")
			}
		}
	}

	printMetadata()

	_ = arrayPtrArena.Destroy(false)
}

func printMetadata() {
	metadata := allocator.AllocMetadata()

	fmt.Println("\n================================")
	fmt.Printf("Pools Created         : %d\n", metadata.PoolsCreated)
	fmt.Printf("Pools Freed           : %d\n", metadata.PoolsFreed)
	fmt.Printf("Blocks Created        : %d\n", metadata.BlocksCreated)
	fmt.Printf("Blocks Freed          : %d\n", metadata.BlocksFreed)
	fmt.Println("=================================")
}

func printStats(arrayCount int) {
	fmt.Println("=================================")
	fmt.Printf("Array Count      : %d\n", arrayCount)
	fmt.Printf("Memory Allocated : %d bytes\n", allocator.TotalAllocSize())
	fmt.Printf("Pool Count       : %d\n", allocator.TotalPoolCount())
	fmt.Printf("Block Count      : %d\n", allocator.TotalBlockCount())
	fmt.Println("=================================")

	printMetadata()
}
